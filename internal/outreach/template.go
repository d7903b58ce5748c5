package outreach

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/model"
)

// MessageContext holds the values substituted into a message template.
type MessageContext struct {
	Name     string
	Topic    string
	Location string
	Platform string
}

// NewMessageContext derives the template values for a lead.
func NewMessageContext(l model.Lead) MessageContext {
	return MessageContext{
		Name:     l.Name,
		Topic:    Topic(l.Content),
		Location: l.Location,
		Platform: string(l.Platform),
	}
}

func (c MessageContext) values() map[string]string {
	return map[string]string{
		"name":     c.Name,
		"topic":    c.Topic,
		"location": c.Location,
		"platform": c.Platform,
	}
}

// Placeholders lists the names a template may reference as {name}.
var Placeholders = []string{"name", "topic", "location", "platform"}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ValidateTemplate returns an error naming every placeholder the renderer
// cannot resolve.
func ValidateTemplate(tmpl string) error {
	known := make(map[string]bool, len(Placeholders))
	for _, p := range Placeholders {
		known[p] = true
	}

	unknown := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		if !known[m[1]] {
			unknown[m[1]] = true
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	names := make([]string, 0, len(unknown))
	for n := range unknown {
		names = append(names, "{"+n+"}")
	}
	sort.Strings(names)
	return eris.Errorf("outreach: unknown placeholders %s", strings.Join(names, ", "))
}

// Render substitutes the context values into tmpl. Templates are validated
// at config load, so unknown placeholders are left as written.
func Render(tmpl string, ctx MessageContext) string {
	vals := ctx.values()
	return placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := vals[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// topicRules are checked in order; the first keyword found picks the topic.
var topicRules = []struct {
	keyword string
	topic   string
}{
	{"tattoo", "finding a tattoo-friendly gym"},
	{"crossfit", "CrossFit training"},
	{"boxing", "boxing training"},
	{"hiit", "HIIT workouts"},
	{"personal trainer", "personal training"},
	{"gym recommendation", "gym recommendations"},
}

// Topic picks a short phrase describing what the post is about.
func Topic(content string) string {
	lower := strings.ToLower(content)
	for _, r := range topicRules {
		if strings.Contains(lower, r.keyword) {
			return r.topic
		}
	}
	return "fitness goals"
}

// Templates resolves message templates by contact method.
type Templates map[string]string

// For returns the template for the lead's contact method, falling back to
// the general outreach template.
func (t Templates) For(contactMethod string) string {
	if tmpl, ok := t[contactMethod]; ok && tmpl != "" {
		return tmpl
	}
	return t[model.GeneralOutreach]
}

// Message renders the outreach message for a lead.
func (t Templates) Message(l model.Lead) string {
	return Render(t.For(l.ContactMethod), NewMessageContext(l))
}
