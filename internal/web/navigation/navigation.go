// Package navigation provides the navbar state and breadcrumbs of a page.
package navigation

// Section is a top level navbar entry.
type Section string

// Navbar sections.
const (
	SectionNone    Section = ""
	SectionHome    Section = "home"
	SectionPlants  Section = "plants"
	SectionProfile Section = "profile"
	SectionAuth    Section = "auth"
)

// Breadcrumb is one link of the breadcrumb trail. The current page is not a link.
type Breadcrumb struct {
	Title   string
	URL     string
	Current bool
}

// Context is the navigation state handed to the base layout.
type Context struct {
	PageTitle   string
	Section     Section
	Breadcrumbs []Breadcrumb
}

// NewContext creates the navigation of a page inside section.
func NewContext(pageTitle string, section Section) *Context {
	return &Context{
		PageTitle:   pageTitle,
		Section:     section,
		Breadcrumbs: []Breadcrumb{},
	}
}

// Crumb appends a link to a parent page.
func (c *Context) Crumb(title, url string) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, Breadcrumb{Title: title, URL: url})
	return c
}

// Here appends the current page and ends the trail.
func (c *Context) Here(title, url string) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, Breadcrumb{Title: title, URL: url, Current: true})
	return c
}

// IsSectionActive reports whether the navbar entry of section is highlighted.
func (c *Context) IsSectionActive(section Section) bool {
	return c.Section != SectionNone && c.Section == section
}

// HasBreadcrumbs reports whether the page shows a breadcrumb trail. A trail of
// one entry is the page itself and is not shown.
func (c *Context) HasBreadcrumbs() bool {
	return len(c.Breadcrumbs) > 1
}
