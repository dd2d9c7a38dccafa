package plan

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Assembler turns parsed descriptors into a Plan. NewID and Now are
// swappable for tests.
type Assembler struct {
	NewID func() string
	Now   func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Assemble builds a Plan from descs. Callers must not pass an empty slice:
// an empty parse result means no plan is created at all.
func (a *Assembler) Assemble(descs []CardDescriptor, req Request, pool ImagePool) *Plan {
	label := UnitLabel(req.DurationUnit)

	cards := make([]Card, len(descs))
	for i, d := range descs {
		cards[i] = Card{
			ID:          a.NewID(),
			Title:       fmt.Sprintf("%s %d", label, i+1),
			Info:        d.Info,
			Description: d.Description,
			Image:       pool.At(i),
		}
	}

	return &Plan{
		ID:        a.NewID(),
		CreatedAt: a.Now().UnixMilli(),
		Meta:      req,
		Cards:     cards,
		Completed: []string{},
	}
}

// UnitLabel singularises and capitalises a duration unit: "days" -> "Day".
func UnitLabel(unit Unit) string {
	s := string(unit)
	if strings.HasSuffix(s, "s") || strings.HasSuffix(s, "S") {
		s = s[:len(s)-1]
	}
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
