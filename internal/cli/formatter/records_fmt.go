package formatter

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alexanderramin/stagegate/internal/domain"
)

const timestampLayout = "2006-01-02 15:04"

func FormatUsers(users []*domain.User) string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		active := StyleGreen.Render("yes")
		if !u.Active {
			active = StyleRed.Render("no")
		}
		rows = append(rows, []string{Bold(u.Username), u.DisplayName, string(u.Role), u.Email, active})
	}
	return RenderTable([]string{"USERNAME", "NAME", "ROLE", "EMAIL", "ACTIVE"}, rows)
}

func FormatHolidays(holidays []domain.Holiday) string {
	if len(holidays) == 0 {
		return Dim("No holidays.") + "\n"
	}
	rows := make([][]string, 0, len(holidays))
	for _, h := range holidays {
		rows = append(rows, []string{h.Date.Format(domain.DateLayout), h.Date.Weekday().String()[:3], h.Name})
	}
	return RenderTable([]string{"DATE", "DAY", "NAME"}, rows)
}

// FormatRemarks renders remarks oldest first with their markdown source.
func FormatRemarks(remarks []*domain.Remark) string {
	if len(remarks) == 0 {
		return Dim("No remarks.") + "\n"
	}
	var b strings.Builder
	for i, r := range remarks {
		if i > 0 {
			b.WriteString("\n")
		}
		where := ""
		if r.StageCode != "" {
			where = " " + StyleBlue.Render("["+r.StageCode+"]")
		}
		b.WriteString(fmt.Sprintf("%s%s  %s\n", Bold(r.Author), where, Dim(r.CreatedAt.Format(timestampLayout))))
		for _, line := range strings.Split(strings.TrimRight(r.BodyMarkdown, "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func FormatNotifications(items []*domain.Notification, unread int) string {
	var b strings.Builder
	if len(items) == 0 {
		b.WriteString(Dim("No notifications.") + "\n")
	} else {
		rows := make([][]string, 0, len(items))
		for _, n := range items {
			mark := StyleYellow.Render("●")
			if n.ReadAt != nil {
				mark = Dim("○")
			}
			rows = append(rows, []string{mark, TruncID(n.ID), Dim(string(n.Kind)), n.Title, Dim(n.CreatedAt.Format(timestampLayout))})
		}
		b.WriteString(RenderTable([]string{"", "ID", "KIND", "TITLE", "AT"}, rows))
	}
	b.WriteString(fmt.Sprintf("\n%s unread\n", Bold(fmt.Sprintf("%d", unread))))
	return b.String()
}

func FormatDocuments(docs []*domain.Document) string {
	if len(docs) == 0 {
		return Dim("No documents.") + "\n"
	}
	rows := make([][]string, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, []string{TruncID(d.ID), Bold(d.FileName), d.ContentType, ByteSize(d.SizeBytes), d.UploadedBy, Dim(d.CreatedAt.Format(timestampLayout))})
	}
	return Table{
		Headers:    []string{"ID", "FILE", "TYPE", "SIZE", "BY", "AT"},
		Rows:       rows,
		RightAlign: map[int]bool{3: true},
	}.Render()
}

func FormatIPR(records []*domain.IPRRecord) string {
	if len(records) == 0 {
		return Dim("No IPR records.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			TruncID(r.ID), Bold(r.Title), string(r.Kind), string(r.Status),
			r.FilingNumber, Date(r.FiledOn), strings.Join(r.Inventors, ", "),
		})
	}
	return RenderTable([]string{"ID", "TITLE", "KIND", "STATUS", "FILING", "FILED", "INVENTORS"}, rows)
}

func FormatPartners(partners []*domain.IndustryPartner) string {
	if len(partners) == 0 {
		return Dim("No partners.") + "\n"
	}
	rows := make([][]string, 0, len(partners))
	for _, p := range partners {
		name := Bold(p.Name)
		if !p.Active {
			name = Dim(p.Name + " (inactive)")
		}
		rows = append(rows, []string{TruncID(p.ID), name, p.City, p.ContactPerson, p.ContactEmail, strings.Join(p.Domains, ", ")})
	}
	return RenderTable([]string{"ID", "NAME", "CITY", "CONTACT", "EMAIL", "DOMAINS"}, rows)
}

// FormatAudit renders the audit trail as a bordered go-pretty table, which
// wraps long detail text where the plain table would not.
func FormatAudit(events []*domain.AuditEvent) string {
	if len(events) == 0 {
		return Dim("No audit events.") + "\n"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"AT", "ACTOR", "ACTION", "ENTITY", "DETAIL"})
	for _, e := range events {
		tw.AppendRow(table.Row{
			e.CreatedAt.UTC().Format(timestampLayout),
			e.Actor,
			e.Action,
			e.EntityType + ":" + shortRef(e.EntityID),
			e.Detail,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 48, WidthMaxEnforcer: text.WrapSoft},
	})
	return tw.Render() + "\n"
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ByteSize renders a byte count in binary units.
func ByteSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
