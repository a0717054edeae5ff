package ledger

// Category classifies an expense or income record
type Category string

const (
	CategoryLodging   Category = "LODGING"   // room charges
	CategoryVenue     Category = "VENUE"     // hall and seminar room rental
	CategoryMeal      Category = "MEAL"      // catering
	CategoryProgram   Category = "PROGRAM"   // scheduled programs and instructors
	CategorySupply    Category = "SUPPLY"    // materials handed out to participants
	CategoryOther     Category = "OTHER"     // other costs attached to the reservation
	CategoryTransport Category = "TRANSPORT" // manual entry only
	CategoryStaff     Category = "STAFF"     // manual entry only
)

var allCategories = []Category{
	CategoryLodging, CategoryVenue, CategoryMeal, CategoryProgram,
	CategorySupply, CategoryOther, CategoryTransport, CategoryStaff,
}

// AllCategories returns every known category in display order
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsValid checks if the category is a known Category
func (c Category) IsValid() bool {
	switch c {
	case CategoryLodging, CategoryVenue, CategoryMeal, CategoryProgram,
		CategorySupply, CategoryOther, CategoryTransport, CategoryStaff:
		return true
	}
	return false
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category
func (c Category) DisplayName() string {
	switch c {
	case CategoryLodging:
		return "Lodging"
	case CategoryVenue:
		return "Venue"
	case CategoryMeal:
		return "Meals"
	case CategoryProgram:
		return "Programs"
	case CategorySupply:
		return "Supplies"
	case CategoryOther:
		return "Other costs"
	case CategoryTransport:
		return "Transport"
	case CategoryStaff:
		return "Staff"
	default:
		return string(c)
	}
}

// IsDiscountExempt reports whether valuation views always treat the category as undiscounted
func (c Category) IsDiscountExempt() bool {
	return c == CategoryLodging || c == CategoryVenue
}
