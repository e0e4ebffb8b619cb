package machine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"m209/internal/lugrules"
	"m209/internal/variant"
)

var (
	// ErrCribTooLong is returned when the crib extends past the ciphertext.
	ErrCribTooLong = errors.New("crib longer than ciphertext")

	// ErrSlide is returned for a slide outside 0-25.
	ErrSlide = errors.New("slide must be between 0 and 25")
)

// Key is a full machine setting bound to one ciphertext (and optionally a
// crib), with a cached decryption.
//
// Pins and lugs are only changed through Key methods. Each method either
// updates the affected decryption positions or marks the cache invalid.
// A Key is owned by a single search goroutine.
type Key struct {
	rules *lugrules.Rules
	pins  Pins
	lugs  Lugs
	slide int

	cipher    []int
	crib      []int
	decrypted []int
	valid     bool
}

// NewKey builds a key for ciphertext under the given rules. The crib may be
// empty; when present, decryption covers the crib length only. The key
// starts with all pins inactive and no lugs.
func NewKey(r *lugrules.Rules, ciphertext, crib string) (*Key, error) {
	cipher, err := CiphertextSymbols(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ciphertext: %w", err)
	}
	k := &Key{rules: r, cipher: cipher}
	n := len(cipher)
	if crib != "" {
		k.crib = CribSymbols(crib)
		if len(k.crib) > len(cipher) {
			return nil, fmt.Errorf("%w: %d > %d", ErrCribTooLong, len(k.crib), len(cipher))
		}
		n = len(k.crib)
	}
	k.decrypted = make([]int, n)
	return k, nil
}

// NewSetting returns a key holding a machine setting only, with no
// ciphertext bound. It encrypts and decrypts arbitrary text through
// EncryptDecrypt and Stream.
func NewSetting(r *lugrules.Rules) *Key {
	return &Key{rules: r}
}

// Rules returns the compliance rules the key is checked against.
func (k *Key) Rules() *lugrules.Rules {
	return k.rules
}

// Constraints returns the machine constraints of the key.
func (k *Key) Constraints() *variant.Constraints {
	return k.rules.Constraints()
}

// Cipher returns the ciphertext symbols. Callers must not modify them.
func (k *Key) Cipher() []int {
	return k.cipher
}

// Crib returns the crib symbols, nil when there is no crib. Callers must not
// modify them.
func (k *Key) Crib() []int {
	return k.crib
}

// Len returns the number of decrypted positions.
func (k *Key) Len() int {
	return len(k.decrypted)
}

// Pins returns a snapshot of the pin settings.
func (k *Key) Pins() Pins {
	return k.pins
}

// SetPins restores a pin snapshot.
func (k *Key) SetPins(p Pins) {
	k.pins = p
	k.valid = false
}

// Lugs returns a snapshot of the lug settings.
func (k *Key) Lugs() Lugs {
	return k.lugs
}

// SetLugs restores a lug snapshot taken from a key under the same rules.
func (k *Key) SetLugs(l Lugs) {
	k.lugs = l
	k.valid = false
}

// TypeCount returns the bar counts per lug type.
func (k *Key) TypeCount() lugrules.TypeCount {
	return k.lugs.typeCount
}

// SetTypeCount replaces the lug setting if tc is accepted by the rules, see
// Lugs.SetTypeCount.
func (k *Key) SetTypeCount(tc lugrules.TypeCount, checkRules bool) bool {
	if !k.lugs.SetTypeCount(k.rules, tc, checkRules) {
		return false
	}
	k.valid = false
	return true
}

// Slide returns the slide offset.
func (k *Key) Slide() int {
	return k.slide
}

// SetSlide sets the slide offset.
func (k *Key) SetSlide(s int) error {
	if s < 0 || s >= variant.Letters {
		return fmt.Errorf("%w: %d", ErrSlide, s)
	}
	k.slide = s
	k.valid = false
	return nil
}

// SetIndicator changes the indicator, keeping the absolute pin settings.
func (k *Key) SetIndicator(indicator [variant.Wheels]int) {
	k.pins.SetIndicator(indicator)
	k.valid = false
}

// Pin returns the pin sensed at message position pos of wheel w.
func (k *Key) Pin(w, pos int) bool {
	return k.pins.iso[w][pos]
}

// TogglePin flips one pin and updates the affected positions.
func (k *Key) TogglePin(w, pos int) {
	k.pins.Toggle(w, pos)
	k.UpdateDecryptionPin(w, pos)
}

// TogglePins flips two pins of the same wheel and updates the affected
// positions.
func (k *Key) TogglePins(w, pos1, pos2 int) {
	k.pins.Toggle(w, pos1)
	k.pins.Toggle(w, pos2)
	k.UpdateDecryptionPins(w, pos1, pos2)
}

// InverseWheel flips every pin of wheel w.
func (k *Key) InverseWheel(w int) {
	k.pins.Inverse(w)
	k.valid = false
}

// InverseWheelBitmap flips every pin of the wheels selected by bitmap.
func (k *Key) InverseWheelBitmap(bitmap int) {
	k.pins.InverseWheelBitmap(bitmap)
	k.valid = false
}

// LongSeq reports whether the run through pin pos of wheel w exceeds the
// machine's consecutive pin limit.
func (k *Key) LongSeq(w, pos int) bool {
	return k.pins.LongSeq(w, pos, k.Constraints().MaxConsecutiveSamePins)
}

// PinCountCompliant reports whether the number of active pins is within the
// machine's bounds.
func (k *Key) PinCountCompliant() bool {
	return k.Constraints().ActivePinsInBounds(k.pins.ActiveCount(), variant.PinCount)
}

// RandomizePins draws a random compliant pin setting, keeping the indicator.
func (k *Key) RandomizePins(rng *rand.Rand) error {
	if err := k.pins.RandomizeAll(k.Constraints(), rng); err != nil {
		return err
	}
	k.valid = false
	return nil
}

// RandomizeLugs draws a random compliant lug setting.
func (k *Key) RandomizeLugs(rng *rand.Rand) error {
	if err := k.lugs.Randomize(k.rules, rng); err != nil {
		return err
	}
	k.valid = false
	return nil
}

// decryptSymbol applies the M-209 relation p = Z - c + displacement + slide.
func decryptSymbol(c, displacement, slide int) int {
	return (25 - c + displacement + slide) % variant.Letters
}

// maskAt returns the set of wheels presenting an active pin at position i.
func (k *Key) maskAt(i int) int {
	mask := 0
	for w := 0; w < variant.Wheels; w++ {
		if k.pins.iso[w][i%variant.WheelSizes[w]] {
			mask |= 1 << w
		}
	}
	return mask
}

// InvalidateDecryption marks the cached decryption stale.
func (k *Key) InvalidateDecryption() {
	k.valid = false
}

// UpdateDecryptionIfInvalid recomputes the decryption only if it is stale.
func (k *Key) UpdateDecryptionIfInvalid() {
	if !k.valid {
		k.UpdateDecryption()
	}
}

// UpdateDecryption recomputes every position. Wheel positions are tracked
// with rolling counters rather than a modulo per wheel and symbol.
func (k *Key) UpdateDecryption() {
	var pos [variant.Wheels]int
	iso := &k.pins.iso
	vector := &k.lugs.vector
	for i := range k.decrypted {
		mask := 0
		for w := 0; w < variant.Wheels; w++ {
			if iso[w][pos[w]] {
				mask |= 1 << w
			}
			pos[w]++
			if pos[w] == variant.WheelSizes[w] {
				pos[w] = 0
			}
		}
		k.decrypted[i] = decryptSymbol(k.cipher[i], vector[mask], k.slide)
	}
	k.valid = true
}

// UpdateDecryptionPin recomputes the positions that sense pin pos of wheel
// w. A stale cache is recomputed in full instead.
func (k *Key) UpdateDecryptionPin(w, pos int) {
	if !k.valid {
		k.UpdateDecryption()
		return
	}
	for i := pos; i < len(k.decrypted); i += variant.WheelSizes[w] {
		k.decrypted[i] = decryptSymbol(k.cipher[i], k.lugs.vector[k.maskAt(i)], k.slide)
	}
}

// UpdateDecryptionPins is UpdateDecryptionPin for two pins of one wheel.
func (k *Key) UpdateDecryptionPins(w, pos1, pos2 int) {
	if !k.valid {
		k.UpdateDecryption()
		return
	}
	k.UpdateDecryptionPin(w, pos1)
	k.UpdateDecryptionPin(w, pos2)
}

// Decryption returns the decrypted symbols, recomputing them if stale.
// Callers must not modify the returned slice.
func (k *Key) Decryption() []int {
	k.UpdateDecryptionIfInvalid()
	return k.decrypted
}

// DecryptionValid reports whether the cached decryption is current.
func (k *Key) DecryptionValid() bool {
	return k.valid
}

// Plaintext decrypts the whole ciphertext (not only the crib span) and
// renders it with word spaces.
func (k *Key) Plaintext() string {
	out := k.transform(k.cipher, 0)
	return SymbolsText(out, true)
}

// transform runs symbols through the machine starting at message position
// offset. Encryption and decryption are the same operation.
func (k *Key) transform(symbols []int, offset int) []int {
	out := make([]int, len(symbols))
	for i, s := range symbols {
		out[i] = decryptSymbol(s, k.lugs.vector[k.maskAt(offset+i)], k.slide)
	}
	return out
}

// EncryptDecrypt runs text through the machine from the first message
// position. Encryption folds the text and types spaces as Z; decryption
// prints Z as a space.
func (k *Key) EncryptDecrypt(text string, encrypt bool) (string, error) {
	out, _, err := k.EncryptDecryptAt(text, encrypt, 0)
	return out, err
}

// EncryptDecryptAt is EncryptDecrypt starting at message position offset.
// It also returns the position following the last processed letter.
func (k *Key) EncryptDecryptAt(text string, encrypt bool, offset int) (string, int, error) {
	if encrypt {
		in := PlaintextSymbols(text)
		return SymbolsText(k.transform(in, offset), false), offset + len(in), nil
	}
	in, err := CiphertextSymbols(text)
	if err != nil {
		return "", offset, err
	}
	return SymbolsText(k.transform(in, offset), true), offset + len(in), nil
}
