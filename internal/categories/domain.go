package categories

// Category groups events under a display name.
type Category struct {
	ID        int64
	Name      string
	CreatedBy int64
}
