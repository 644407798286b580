package sync

import "gorm.io/gorm"

// Filter narrows a Read or Count. Query/Args follow gorm conventions
// ("user_id = ? AND status = ?"). Zero value selects everything.
type Filter struct {
	Query  string
	Args   []interface{}
	Order  string
	Limit  int
	Offset int
}

// Where is a convenience constructor for the common case.
func Where(query string, args ...interface{}) Filter {
	return Filter{Query: query, Args: args}
}

func (f Filter) WithOrder(order string) Filter {
	f.Order = order
	return f
}

func (f Filter) WithPage(page, pageSize int) Filter {
	if page < 1 {
		page = 1
	}
	f.Offset = (page - 1) * pageSize
	f.Limit = pageSize
	return f
}

func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	if f.Query != "" {
		tx = tx.Where(f.Query, f.Args...)
	}
	if f.Order != "" {
		tx = tx.Order(f.Order)
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}
	return tx
}
