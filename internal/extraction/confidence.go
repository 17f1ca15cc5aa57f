package extraction

// minTextLength is the recognition-failure threshold: below this the image
// produced so little text that extraction is not even attempted.
const minTextLength = 10

// legibleTextLength is the minimum trimmed length for an image to count as
// readable, independent of which anchors were found.
const legibleTextLength = 30

// Classify derives the confidence level from the three anchor fields
// (bank, amount, operation code) and the trimmed text length.
func Classify(hasBank, hasAmount, hasCode bool, textLength int) (confidence Confidence, valid, legible bool) {
	if textLength < minTextLength {
		return ConfidenceNone, false, false
	}

	anchors := 0
	for _, present := range []bool{hasBank, hasAmount, hasCode} {
		if present {
			anchors++
		}
	}

	switch anchors {
	case 3:
		confidence = ConfidenceHigh
	case 2:
		confidence = ConfidenceMedium
	case 1:
		confidence = ConfidenceLow
	default:
		confidence = ConfidenceNone
	}

	valid = confidence == ConfidenceHigh || confidence == ConfidenceMedium
	legible = textLength > legibleTextLength
	return confidence, valid, legible
}
