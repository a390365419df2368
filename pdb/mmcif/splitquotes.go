// Splitting lines at spaces, and at spaces and quotes.

/* from https://www.iucr.org/resources/cif/spec/version1.1/cifsyntax
'              delimits non-simple data values
"              delimits non-simple data values
; at beginning of line of text delimits non-simple data values

A delimiter quote is only recognised as closing a value when it is
followed by white space or the end of the line.
*/

package mmcif

import (
	"errors"
)

// iswhite only works for ascii spaces
var asciiSpace = [256]bool{
	'\t': true, '\n': true, '\v': true, '\f': true, '\r': true, ' ': true,
}

func iswhite(b byte) bool { return asciiSpace[b] }

func isquote(b byte) bool { return b == squote || b == dquote }

// skipWhite gives the index of the first non-white byte at or after i.
func skipWhite(s []byte, i int) int {
	for i < len(s) && iswhite(s[i]) {
		i++
	}
	return i
}

// wordEnd gives the index of the first white byte at or after i.
func wordEnd(s []byte, i int) int {
	for i < len(s) && !iswhite(s[i]) {
		i++
	}
	return i
}

// fields breaks a line into the space separated words. It fills the
// scratch slice instead of allocating, so an atom_site line costs
// nothing. Words beyond cap(scrtch) are lost.
func fields(s bSlice, scrtch []bSlice) []bSlice {
	scrtch = scrtch[:cap(scrtch)]
	n := 0
	for i := skipWhite(s, 0); i < len(s) && n < len(scrtch); i = skipWhite(s, i) {
		end := wordEnd(s, i)
		scrtch[n] = s[i:end]
		n++
		i = end
	}
	if n == 0 {
		return nil
	}
	return scrtch[:n]
}

// closingQuote gives the index of the quote q that ends a value whose
// text starts at i, or -1 if the line ends first. A q with more text
// directly after it belongs to the value, as in "O5'".
func closingQuote(s []byte, i int, q byte) int {
	for ; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 == len(s) || iswhite(s[i+1]) {
			return i
		}
	}
	return -1
}

// splitCifLine takes a byte slice and returns the words in it. They are
// separated by white space. A word starting with a quote runs to its
// closing quote and is returned without the quotes. A quote inside a
// word, like C5', is just a character.
// The words point into byteIn and retIn is reused for storage.
func splitCifLine(byteIn []byte, retIn [][]byte) ([][]byte, error) {
	if len(byteIn) < 1 {
		return nil, nil
	}
	ret := retIn[:0]
	for i := skipWhite(byteIn, 0); i < len(byteIn); i = skipWhite(byteIn, i) {
		if q := byteIn[i]; isquote(q) {
			end := closingQuote(byteIn, i+1, q)
			if end < 0 {
				return nil, errors.New("unterminated quote line: " + string(byteIn))
			}
			ret = append(ret, byteIn[i+1:end])
			i = end + 1
			continue
		}
		end := wordEnd(byteIn, i)
		ret = append(ret, byteIn[i:end])
		i = end
	}
	return ret, nil
}
