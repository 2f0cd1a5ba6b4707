package model

type View string

const (
	ViewAll       View = "all"
	ViewActive    View = "active"
	ViewCompleted View = "completed"
)

var Views = []View{ViewAll, ViewActive, ViewCompleted}

// ParseView falls back to ViewAll for anything it does not recognise.
func ParseView(s string) View {
	switch View(s) {
	case ViewActive, ViewCompleted:
		return View(s)
	}
	return ViewAll
}

func (v View) Label() string {
	switch v {
	case ViewActive:
		return "Active"
	case ViewCompleted:
		return "Completed"
	}
	return "All"
}

type Counts struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Remaining       int     `json:"remaining"`
	PercentComplete float64 `json:"percent_complete"`
}

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

func (t Theme) Valid() bool {
	return t == ThemeSystem || t == ThemeLight || t == ThemeDark
}
