package models

// TagPalette is the set of colors offered when creating or editing a tag
var TagPalette = []string{
	"#f44336", "#e91e63", "#9c27b0", "#673ab7", "#3f51b5", "#2196f3",
	"#03a9f4", "#00bcd4", "#009688", "#4caf50", "#8bc34a", "#cddc39",
	"#ffeb3b", "#ffc107", "#ff9800", "#ff5722", "#795548", "#607d8b",
}

// NextTagColor picks a palette color for the n-th tag, cycling through the palette
func NextTagColor(n int) string {
	if n < 0 {
		n = -n
	}
	return TagPalette[n%len(TagPalette)]
}
