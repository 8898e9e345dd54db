// Package huffman builds a static prefix code from a symbol frequency table
// and encodes or decodes text with it. Codes are written as strings of '0'
// (left) and '1' (right) characters.
//
// Construction is deterministic: symbols enter the priority queue in
// ascending order and equal frequencies are popped in insertion order.
package huffman
