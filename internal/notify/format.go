package notify

import (
	"fmt"
	"strings"
	"time"

	"horse.fit/localwire/internal/globaltime"
	"horse.fit/localwire/internal/news"
	"horse.fit/localwire/internal/reader"
)

// GroupDigest is one multi-article notification.
type GroupDigest struct {
	Members news.Group
	Summary string
	Angle   string
}

// Formatter renders Slack mrkdwn text.
type Formatter struct {
	ExcerptLength int
	Location      *time.Location
	Now           func() time.Time
}

// Article renders an individual notification.
func (f Formatter) Article(c news.Candidate) string {
	var b strings.Builder

	b.WriteString(urgencyMarker(c.Urgency))
	fmt.Fprintf(&b, ":bell: *%s* · %s\n", escapeText(strings.Join(c.Communities, ", ")), escapeText(c.Title))

	source := "_" + escapeText(c.Source) + "_"
	if c.IsPriority {
		source += " :star: local"
	}
	b.WriteString(source)
	if when := f.published(c.PublishedAt); when != "" {
		b.WriteString(" · _" + when + "_")
	}
	b.WriteString("\n")

	if summary := strings.TrimSpace(c.Summary); summary != "" {
		b.WriteString("*Summary:* " + escapeText(summary) + "\n")
	}
	if excerpt, _ := reader.TruncateText(c.Excerpt, f.ExcerptLength); excerpt != "" && excerpt != c.Title {
		b.WriteString("> " + escapeText(strings.ReplaceAll(excerpt, "\n", " ")) + "\n")
	}
	b.WriteString(c.Link)
	return b.String()
}

// Group renders a grouped notification with one line per member.
func (f Formatter) Group(d GroupDigest) string {
	var b strings.Builder

	lead := news.Candidate{}
	if len(d.Members) > 0 {
		lead = d.Members[0]
	}
	b.WriteString(urgencyMarker(mostUrgent(d.Members)))
	fmt.Fprintf(&b, ":newspaper: *%d outlets on one story* · %s\n", len(d.Members), escapeText(strings.Join(communityUnion(d.Members), ", ")))
	fmt.Fprintf(&b, "*%s*\n", escapeText(lead.Title))

	if summary := strings.TrimSpace(d.Summary); summary != "" {
		b.WriteString("*Summary:* " + escapeText(summary) + "\n")
	}
	if angle := strings.TrimSpace(d.Angle); angle != "" {
		b.WriteString("*Angle:* " + escapeText(angle) + "\n")
	}

	for i, member := range d.Members {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("• <%s|%s> · _%s_", member.Link, slackEscape(member.Title), escapeText(member.Source))
		if member.IsPriority {
			line += " :star:"
		}
		if when := f.relative(member.PublishedAt); when != "" {
			line += " · " + when
		}
		b.WriteString(line)
	}
	return b.String()
}

func (f Formatter) published(at *time.Time) string {
	if at == nil {
		return "Published: unknown"
	}
	loc := f.Location
	if loc == nil {
		loc = at.Location()
	}
	absolute := at.In(loc).Format("2006-01-02 15:04 MST")
	if rel := f.relative(at); rel != "" {
		return "Published " + rel + " (" + absolute + ")"
	}
	return "Published " + absolute
}

func (f Formatter) relative(at *time.Time) string {
	if at == nil {
		return ""
	}
	now := globaltime.Now
	if f.Now != nil {
		now = f.Now
	}

	age := now().Sub(*at)
	switch {
	case age < 0:
		return ""
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%d min ago", int(age/time.Minute))
	case age < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(age/time.Hour))
	case age < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", int(age/(24*time.Hour)))
	}
}

func urgencyMarker(u news.Urgency) string {
	switch u {
	case news.UrgencyBreaking:
		return ":rotating_light: *BREAKING* "
	case news.UrgencyDeveloping:
		return ":hourglass_flowing_sand: *DEVELOPING* "
	default:
		return ""
	}
}

func mostUrgent(group news.Group) news.Urgency {
	best := news.UrgencyRoutine
	for _, member := range group {
		if member.Urgency.Rank() < best.Rank() {
			best = member.Urgency
		}
	}
	return best
}

func communityUnion(group news.Group) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, member := range group {
		for _, name := range member.Communities {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

var (
	textEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	labelEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "|", "-")
)

// escapeText encodes the three characters Slack mrkdwn reserves.
func escapeText(text string) string {
	return textEscaper.Replace(text)
}

// slackEscape also keeps link labels from breaking Slack's <url|label> syntax.
func slackEscape(text string) string {
	return labelEscaper.Replace(text)
}
