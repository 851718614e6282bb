package activity

// ListOptions provides filtering options for listing audit entries.
type ListOptions struct {
	ProjectID int64
	Category  *Category
	Limit     int
	Offset    int
}
