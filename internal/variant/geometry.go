// Package variant holds the fixed M-209 geometry and the per-version
// constraint sets that bound lug and pin settings.
package variant

const (
	// Wheels is the number of pin wheels.
	Wheels = 6

	// Bars is the number of bars on the lug cage.
	Bars = 27

	// Letters is the size of the machine alphabet (A-Z).
	Letters = 26

	// MaxWheelSize is the size of the largest wheel.
	MaxWheelSize = 26

	// PinCount is the total number of pins over all wheels.
	PinCount = 26 + 25 + 23 + 21 + 19 + 17

	// TypeCountSize is the number of lug type slots. Slot 0 (wheel pair 0-0)
	// is never used and stays zero.
	TypeCountSize = 22

	// VectorSize is the number of wheel subsets, one displacement per subset.
	VectorSize = 1 << Wheels
)

// WheelSizes lists the number of pins on each wheel.
var WheelSizes = [Wheels]int{26, 25, 23, 21, 19, 17}

// WheelLetters lists the letters engraved on each wheel, in pin order.
var WheelLetters = [Wheels]string{
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"ABCDEFGHIJKLMNOPQRSTUVXYZ",
	"ABCDEFGHIJKLMNOPQRSTUVX",
	"ABCDEFGHIJKLMNOPQRSTU",
	"ABCDEFGHIJKLMNOPQRS",
	"ABCDEFGHIJKLMNOPQ",
}

// ActivePinOffsets is, per wheel, how many positions the pin sensed by the
// lugs is ahead of the letter shown in the indicator window.
var ActivePinOffsets = [Wheels]int{15, 14, 13, 12, 11, 10}

// LetterIndex returns the pin position of letter on wheel w, or -1.
func LetterIndex(w int, letter byte) int {
	letters := WheelLetters[w]
	for i := 0; i < len(letters); i++ {
		if letters[i] == letter {
			return i
		}
	}
	return -1
}

// LugType is a bar configuration: lugs facing wheels A and B (1-based),
// where 0 means no lug. A single-lug bar has A == 0 or B == 0.
type LugType struct {
	A, B int
}

// IsPair reports whether both lugs of the bar are placed.
func (t LugType) IsPair() bool {
	return t.A != 0 && t.B != 0
}

// Covers reports whether a bar of this type moves when the wheels in mask
// (bit w-1 for wheel w) present an active pin.
func (t LugType) Covers(mask int) bool {
	if t.A != 0 && mask&(1<<(t.A-1)) != 0 {
		return true
	}
	return t.B != 0 && mask&(1<<(t.B-1)) != 0
}

// typeIndex maps an unordered wheel pair (0 = no lug) to a type slot.
var typeIndex [Wheels + 1][Wheels + 1]int

// types maps a type slot back to its wheel pair.
var types [TypeCountSize]LugType

func init() {
	for w := 1; w <= Wheels; w++ {
		typeIndex[0][w] = w
		typeIndex[w][0] = w
		types[w] = LugType{A: w}
	}
	slot := Wheels + 1
	for a := 1; a <= Wheels; a++ {
		for b := a + 1; b <= Wheels; b++ {
			typeIndex[a][b] = slot
			typeIndex[b][a] = slot
			types[slot] = LugType{A: a, B: b}
			slot++
		}
	}
}

// TypeIndex returns the slot of the bar with lugs facing wheels a and b.
// Slot 0 is returned for the 0-0 pair and for a == b.
func TypeIndex(a, b int) int {
	if a == b {
		return 0
	}
	return typeIndex[a][b]
}

// TypeOf returns the wheel pair stored in slot i.
func TypeOf(i int) LugType {
	return types[i]
}

// Types returns the usable type slots (1..21): six singles, then the 15
// pairs in lexicographic order.
func Types() []int {
	out := make([]int, 0, TypeCountSize-1)
	for i := 1; i < TypeCountSize; i++ {
		out = append(out, i)
	}
	return out
}

// FirstPairType is the slot of the first two-lug type (1-2).
const FirstPairType = Wheels + 1
