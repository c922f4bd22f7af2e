package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/calendar"
)

// MealOption is one of the standing serving counters. The numeric value is the
// stored column and fixes the display order within a day.
type MealOption int

const (
	OptionGrillSandwiches MealOption = iota
	OptionSmutsLeibspeise
	OptionJustGoodFood
)

// AllOptions lists every option in declaration order.
var AllOptions = []MealOption{
	OptionGrillSandwiches,
	OptionSmutsLeibspeise,
	OptionJustGoodFood,
}

var optionCodes = map[MealOption]string{
	OptionGrillSandwiches: "grill_sandwiches",
	OptionSmutsLeibspeise: "smuts_leibspeise",
	OptionJustGoodFood:    "just_good_food",
}

func (o MealOption) Code() string {
	if code, ok := optionCodes[o]; ok {
		return code
	}
	return "unknown"
}

// WeekSize is the number of slots in a complete business week.
func WeekSize() int {
	return calendar.BusinessDays * len(AllOptions)
}

// MealSlot is one (day, option) serving with a mutable description.
type MealSlot struct {
	ID          snowflake.ID       `gorm:"primaryKey"`
	DayNumber   calendar.DayNumber `gorm:"column:day_number;not null;uniqueIndex:ux_meal_slots_day_option,priority:1"`
	Option      MealOption         `gorm:"column:meal_option;not null;uniqueIndex:ux_meal_slots_day_option,priority:2"`
	Description string             `gorm:"type:varchar(200);not null;default:'';index:ix_meal_slots_description"`
	// Lowercased copy of Description for case-insensitive search.
	DescriptionSearch string `gorm:"column:description_search;type:varchar(400);not null;default:'';index:ix_meal_slots_description_search"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (MealSlot) TableName() string { return "meal_slots" }

// SearchText folds s the way description_search is stored. Folding happens
// here rather than in SQL because sqlite's LOWER only handles ASCII.
func SearchText(s string) string {
	return strings.ToLower(s)
}

// SlotKey identifies a slot by its natural key.
type SlotKey struct {
	DayNumber calendar.DayNumber
	Option    MealOption
}

func (s MealSlot) Key() SlotKey {
	return SlotKey{DayNumber: s.DayNumber, Option: s.Option}
}
