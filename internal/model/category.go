package model

import "strings"

// Category is one label from the closed expense vocabulary.
type Category string

// The expense vocabulary. CategoryOther is the universal fallback.
const (
	CategoryGroceries      Category = "Groceries"
	CategoryRestaurants    Category = "Restaurants"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryHealth         Category = "Health"
	CategoryEducation      Category = "Education"
	CategoryHousing        Category = "Housing"
	CategoryUtilities      Category = "Utilities"
	CategoryOther          Category = "Other"
)

// categories is the ordered vocabulary shared by prompt construction,
// output validation, storage and the category picker.
var categories = [...]Category{
	CategoryGroceries,
	CategoryRestaurants,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryHealth,
	CategoryEducation,
	CategoryHousing,
	CategoryUtilities,
	CategoryOther,
}

// Categories returns a copy of the ordered vocabulary.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// CategoryNames returns the vocabulary as plain strings, in order.
func CategoryNames() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

// ParseCategory returns the Category with exactly the given name.
// Matching is case sensitive.
func ParseCategory(name string) (Category, bool) {
	for _, c := range categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c is a member of the vocabulary.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// JoinCategoryNames renders the vocabulary as "A, B, C".
func JoinCategoryNames() string {
	return strings.Join(CategoryNames(), ", ")
}
