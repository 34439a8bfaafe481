package payload

import "errors"

// Verhoeff check digits over the dihedral group D5. Catches all
// single-digit errors and adjacent transpositions.

var ErrVerhoeffDigit = errors.New("payload: non-digit in manual code")

var verhoeffD = [10][10]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	{1, 2, 3, 4, 0, 6, 7, 8, 9, 5},
	{2, 3, 4, 0, 1, 7, 8, 9, 5, 6},
	{3, 4, 0, 1, 2, 8, 9, 5, 6, 7},
	{4, 0, 1, 2, 3, 9, 5, 6, 7, 8},
	{5, 9, 8, 7, 6, 0, 4, 3, 2, 1},
	{6, 5, 9, 8, 7, 1, 0, 4, 3, 2},
	{7, 6, 5, 9, 8, 2, 1, 0, 4, 3},
	{8, 7, 6, 5, 9, 3, 2, 1, 0, 4},
	{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
}

var verhoeffP = [10]uint8{1, 5, 7, 6, 2, 8, 3, 0, 9, 4}

var verhoeffInv = [10]uint8{0, 4, 3, 2, 1, 5, 6, 7, 8, 9}

// verhoeffCheckDigit computes the check digit for a digit string that
// does not yet include it.
func verhoeffCheckDigit(digits string) (byte, error) {
	var c uint8
	for i := 0; i < len(digits); i++ {
		ch := digits[len(digits)-1-i]
		if ch < '0' || ch > '9' {
			return 0, ErrVerhoeffDigit
		}
		v := ch - '0'
		for n := 0; n <= i; n++ {
			v = verhoeffP[v]
		}
		c = verhoeffD[c][v]
	}
	return '0' + verhoeffInv[c], nil
}

// verhoeffValid reports whether the final character of digits is the
// correct check digit for the rest.
func verhoeffValid(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	check, err := verhoeffCheckDigit(digits[:len(digits)-1])
	if err != nil {
		return false
	}
	return digits[len(digits)-1] == check
}
