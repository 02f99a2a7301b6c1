// Package textutil provides the natural ordering used to sequence assets.
//
// Digit runs compare by numeric value and text runs compare case-insensitively,
// so "frame2" sorts before "frame10" and "Img3" sits between "img2" and "img4".
package textutil
