package core

// Closed vocabularies persisted by key. Lookups never fail: an unknown key
// resolves to the documented default variant.

type (
	TransactionType   string
	NoteType          string
	Category          string
	TransactionPeriod string
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	Debt       NoteType = "DEBT"
	Receivable NoteType = "RECEIVABLE"
)

const (
	Today   TransactionPeriod = "TODAY"
	Monthly TransactionPeriod = "MONTHLY"
	Yearly  TransactionPeriod = "YEARLY"
)

const (
	Salary     Category = "SALARY"
	Business   Category = "BUSINESS"
	Freelance  Category = "FREELANCE"
	Bonus      Category = "BONUS"
	Investment Category = "INVESTMENT"
	Gift       Category = "GIFT"

	Food          Category = "FOOD"
	Rent          Category = "RENT"
	Utility       Category = "UTILITY"
	Transport     Category = "TRANSPORT"
	Shopping      Category = "SHOPPING"
	Health        Category = "HEALTH"
	Education     Category = "EDUCATION"
	Entertainment Category = "ENTERTAINMENT"

	Others Category = "OTHERS"
)

var categoryLabels = map[Category]string{
	Salary:        "Salary",
	Business:      "Business",
	Freelance:     "Freelance",
	Bonus:         "Bonus",
	Investment:    "Investment",
	Gift:          "Gift",
	Food:          "Food",
	Rent:          "Rent",
	Utility:       "Utility",
	Transport:     "Transport",
	Shopping:      "Shopping",
	Health:        "Health",
	Education:     "Education",
	Entertainment: "Entertainment",
	Others:        "Others",
}

// allCategories keeps declaration order for listings.
var allCategories = []Category{
	Salary, Business, Freelance, Bonus, Investment, Gift,
	Food, Rent, Utility, Transport, Shopping, Health, Education, Entertainment,
	Others,
}

func TransactionTypeFromKey(key string) TransactionType {
	switch TransactionType(key) {
	case Income:
		return Income
	default:
		return Expense
	}
}

func (t TransactionType) String() string { return string(t) }

// Label is the human readable title used in reports.
func (t TransactionType) Label() string {
	if t == Income {
		return "Income"
	}
	return "Expense"
}

func NoteTypeFromKey(key string) NoteType {
	switch NoteType(key) {
	case Receivable:
		return Receivable
	default:
		return Debt
	}
}

func (n NoteType) String() string { return string(n) }

func (n NoteType) Label() string {
	if n == Receivable {
		return "Receivable"
	}
	return "Debt"
}

func TransactionPeriodFromKey(key string) TransactionPeriod {
	switch TransactionPeriod(key) {
	case Monthly:
		return Monthly
	case Yearly:
		return Yearly
	default:
		return Today
	}
}

func (p TransactionPeriod) String() string { return string(p) }

func CategoryFromKey(key string) Category {
	c := Category(key)
	if _, ok := categoryLabels[c]; ok {
		return c
	}
	return Others
}

func (c Category) String() string { return string(c) }

func (c Category) Label() string {
	return categoryLabels[CategoryFromKey(string(c))]
}

// AllCategories returns every category in declaration order.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

// IncomeCategories lists the categories offered for income entries.
func IncomeCategories() []Category {
	return []Category{Salary, Business, Freelance, Bonus, Investment, Gift, Others}
}

// ExpenseCategories lists the categories offered for expense entries.
func ExpenseCategories() []Category {
	return []Category{Food, Rent, Utility, Transport, Shopping, Health, Education, Entertainment, Others}
}

// CategoriesFor returns the picker list for a transaction type.
func CategoriesFor(t TransactionType) []Category {
	if t == Income {
		return IncomeCategories()
	}
	return ExpenseCategories()
}
