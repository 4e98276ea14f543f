// Package widget renders testimonial widgets.
//
// Everything here is a pure function of its inputs: Escape is the single
// sanitization step for server-supplied text, Card renders one testimonial,
// the Wall, List and Carousel templates lay cards out, GenerateStyles
// produces the CSS for the isolation root and CreateBadge builds the
// attribution link shown on free plans.
package widget
