package allocation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/exam-registration-api/internal/models"
)

// ExamOption pairs an exam type code with its display name.
type ExamOption struct {
	Code models.ExamType `json:"code"`
	Name string          `json:"name"`
}

// SlotOption pairs a slot label with its human readable range.
type SlotOption struct {
	Label   models.TimeSlot `json:"label"`
	Display string          `json:"display"`
}

// Catalog is the immutable set of exam types and time slots that may be reserved.
type Catalog struct {
	exams     []ExamOption
	slots     []SlotOption
	examIndex map[models.ExamType]int
	slotIndex map[models.TimeSlot]int
}

// NewCatalog validates and freezes the provided options. Order is preserved.
func NewCatalog(exams []ExamOption, slots []SlotOption) (*Catalog, error) {
	if len(exams) == 0 {
		return nil, fmt.Errorf("catalog requires at least one exam type")
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("catalog requires at least one time slot")
	}
	c := &Catalog{
		exams:     make([]ExamOption, 0, len(exams)),
		slots:     make([]SlotOption, 0, len(slots)),
		examIndex: make(map[models.ExamType]int, len(exams)),
		slotIndex: make(map[models.TimeSlot]int, len(slots)),
	}
	for _, exam := range exams {
		code := models.ExamType(strings.TrimSpace(string(exam.Code)))
		if code == "" {
			return nil, fmt.Errorf("exam type code must not be empty")
		}
		if _, dup := c.examIndex[code]; dup {
			return nil, fmt.Errorf("duplicate exam type %q", code)
		}
		name := exam.Name
		if name == "" {
			name = string(code)
		}
		c.examIndex[code] = len(c.exams)
		c.exams = append(c.exams, ExamOption{Code: code, Name: name})
	}
	for _, slot := range slots {
		label := models.TimeSlot(strings.TrimSpace(string(slot.Label)))
		if label == "" {
			return nil, fmt.Errorf("time slot label must not be empty")
		}
		if _, dup := c.slotIndex[label]; dup {
			return nil, fmt.Errorf("duplicate time slot %q", label)
		}
		display := slot.Display
		if display == "" {
			display = string(label)
		}
		c.slotIndex[label] = len(c.slots)
		c.slots = append(c.slots, SlotOption{Label: label, Display: display})
	}
	return c, nil
}

// DefaultCatalog returns the three exam subjects and the nine hourly slots 09:00-17:00.
func DefaultCatalog() *Catalog {
	exams := []ExamOption{
		{Code: "MATH", Name: "Math"},
		{Code: "SCIENCE", Name: "Science"},
		{Code: "ENGLISH", Name: "English"},
	}
	slots := make([]SlotOption, 0, 9)
	for hour := 9; hour <= 17; hour++ {
		slots = append(slots, HourlySlot(hour))
	}
	c, err := NewCatalog(exams, slots)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalog builds a catalog from configuration entries. Exam entries are CODE or
// CODE:Display Name; slot entries are HH:MM labels, displayed as a one hour range.
func ParseCatalog(examEntries, slotEntries []string) (*Catalog, error) {
	exams := make([]ExamOption, 0, len(examEntries))
	for _, entry := range examEntries {
		code, name, _ := strings.Cut(entry, ":")
		exams = append(exams, ExamOption{
			Code: models.ExamType(strings.ToUpper(strings.TrimSpace(code))),
			Name: strings.TrimSpace(name),
		})
	}
	slots := make([]SlotOption, 0, len(slotEntries))
	for _, entry := range slotEntries {
		label := strings.TrimSpace(entry)
		hour, err := strconv.Atoi(strings.TrimSuffix(label, ":00"))
		if err != nil || !strings.HasSuffix(label, ":00") || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("time slot %q must be an hourly HH:00 label", entry)
		}
		slots = append(slots, HourlySlot(hour))
	}
	return NewCatalog(exams, slots)
}

// HourlySlot builds the slot starting at the given hour, e.g. 13 -> "13:00" / "1:00 PM - 2:00 PM".
func HourlySlot(hour int) SlotOption {
	return SlotOption{
		Label:   models.TimeSlot(fmt.Sprintf("%02d:00", hour)),
		Display: fmt.Sprintf("%s - %s", clock12(hour), clock12(hour+1)),
	}
}

func clock12(hour int) string {
	hour %= 24
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:00 %s", h, suffix)
}

// ExamTypes returns a copy of the configured exam types.
func (c *Catalog) ExamTypes() []ExamOption {
	out := make([]ExamOption, len(c.exams))
	copy(out, c.exams)
	return out
}

// Slots returns a copy of the configured time slots.
func (c *Catalog) Slots() []SlotOption {
	out := make([]SlotOption, len(c.slots))
	copy(out, c.slots)
	return out
}

// SlotLabels lists slot labels in catalog order.
func (c *Catalog) SlotLabels() []models.TimeSlot {
	out := make([]models.TimeSlot, len(c.slots))
	for i, slot := range c.slots {
		out[i] = slot.Label
	}
	return out
}

// HasExam reports whether the exam type is offered.
func (c *Catalog) HasExam(exam models.ExamType) bool {
	_, ok := c.examIndex[exam]
	return ok
}

// HasSlot reports whether the time slot is offered.
func (c *Catalog) HasSlot(slot models.TimeSlot) bool {
	_, ok := c.slotIndex[slot]
	return ok
}

// ExamName returns the display name for an exam type, or the code itself when unknown.
func (c *Catalog) ExamName(exam models.ExamType) string {
	if idx, ok := c.examIndex[exam]; ok {
		return c.exams[idx].Name
	}
	return string(exam)
}

// SlotDisplay returns the human readable range for a slot, or the label itself when unknown.
func (c *Catalog) SlotDisplay(slot models.TimeSlot) string {
	if idx, ok := c.slotIndex[slot]; ok {
		return c.slots[idx].Display
	}
	return string(slot)
}

// SlotOrder returns the catalog position of a slot; unknown slots sort last.
func (c *Catalog) SlotOrder(slot models.TimeSlot) int {
	if idx, ok := c.slotIndex[slot]; ok {
		return idx
	}
	return len(c.slots)
}

// SortExams returns a copy of exams in catalog order. Unknown codes sort last.
func (c *Catalog) SortExams(exams []models.ExamType) []models.ExamType {
	out := make([]models.ExamType, len(exams))
	copy(out, exams)
	sort.SliceStable(out, func(i, j int) bool {
		return c.examOrder(out[i]) < c.examOrder(out[j])
	})
	return out
}

func (c *Catalog) examOrder(exam models.ExamType) int {
	if idx, ok := c.examIndex[exam]; ok {
		return idx
	}
	return len(c.exams)
}
