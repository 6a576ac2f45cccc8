package domain

type Category string

const (
	CategoryBook     Category = "BOOK"
	CategoryMagazine Category = "MAGAZINE"
)

// Categories lists the categories in a stable order.
var Categories = []Category{CategoryBook, CategoryMagazine}

func (c Category) Valid() bool {
	return c == CategoryBook || c == CategoryMagazine
}

type Book struct {
	ID        int32    `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	ISBN      string   `json:"isbn"`
	Publisher string   `json:"publisher"`
	Category  Category `json:"category"`
}

type Branch struct {
	ID      int32  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

type Role string

const (
	RoleMember    Role = "MEMBER"
	RoleLibrarian Role = "LIBRARIAN"
)

// Borrower is the identity-owned view of a library member.
type Borrower struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
