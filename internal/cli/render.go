package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Guilhem-Bonnet/bookclub/internal/domain"
)

// Printer écrit la sortie utilisateur; les couleurs disparaissent hors terminal.
type Printer struct {
	w io.Writer

	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	info  lipgloss.Style
	local lipgloss.Style
	other lipgloss.Style
	muted lipgloss.Style
}

func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		title: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("1")),
		info:  r.NewStyle().Foreground(lipgloss.Color("6")),
		local: r.NewStyle().Foreground(lipgloss.Color("2")),
		other: r.NewStyle().Foreground(lipgloss.Color("5")),
		muted: r.NewStyle().Faint(true),
	}
}

func (p *Printer) line(s string) { fmt.Fprintln(p.w, s) }

func (p *Printer) Title(s string)                   { p.line(p.title.Render(s)) }
func (p *Printer) Successf(format string, a ...any) { p.line(p.ok.Render("✓ " + fmt.Sprintf(format, a...))) }
func (p *Printer) Warnf(format string, a ...any)    { p.line(p.warn.Render(fmt.Sprintf(format, a...))) }
func (p *Printer) Errorf(format string, a ...any)   { p.line(p.bad.Render(fmt.Sprintf(format, a...))) }
func (p *Printer) Infof(format string, a ...any)    { p.line(p.info.Render(fmt.Sprintf(format, a...))) }
func (p *Printer) Plain(s string)                   { p.line(s) }

// FormatEntry: "2024-03-01 - 书名 (领读人: X)".
func FormatEntry(e domain.ScheduleEntry) string {
	s := e.Date + " - " + e.BookName
	if !domain.IsAbsent(e.LeaderName) {
		s += " (领读人: " + e.LeaderName + ")"
	}
	if !domain.IsAbsent(e.HostName) {
		s += " (主持人: " + e.HostName + ")"
	}
	return s
}

// Diff affiche les trois catégories puis les actions suggérées.
func (p *Printer) Diff(d domain.DiffResult) {
	p.Title("\n排期差异分析结果:")
	for _, w := range d.Warnings {
		p.Warnf("! %s", w)
	}
	if d.IsEmpty() {
		p.Successf("本地排期与Notion排期完全一致")
		return
	}

	if len(d.LocalOnly) > 0 {
		p.Warnf("\n本地有但Notion中不存在的排期:")
		for _, e := range d.LocalOnly {
			p.Warnf("+ %s", FormatEntry(e))
		}
	}
	if len(d.RemoteOnly) > 0 {
		p.Errorf("\nNotion中有但本地不存在的排期:")
		for _, e := range d.RemoteOnly {
			p.Errorf("- %s", FormatEntry(e))
		}
	}
	if len(d.Conflicts) > 0 {
		p.Infof("\n内容不一致的排期:")
		for _, c := range d.Conflicts {
			p.Infof("* %s: %s", c.Local.Date, strings.Join(c.Fields, ", "))
			p.line(p.local.Render("  本地: " + FormatEntry(c.Local)))
			p.line(p.other.Render("  Notion: " + FormatEntry(c.Remote)))
		}
	}

	p.Title("\n建议操作:")
	if n := len(d.LocalOnly); n > 0 {
		p.line(p.warn.Render("需要添加到Notion: ") + strconv.Itoa(n) + "项")
	}
	if n := len(d.RemoteOnly); n > 0 {
		p.line(p.bad.Render("需要添加到本地: ") + strconv.Itoa(n) + "项")
	}
	if n := len(d.Conflicts); n > 0 {
		p.line(p.info.Render("需要更新的冲突项: ") + strconv.Itoa(n) + "项")
	}
	p.Title("\n更新方法:")
	p.line("1. 将本地排期同步到Notion: bookclub push")
	p.line("2. 用Notion覆盖本地排期: bookclub pull")
	p.line("3. 再次检查: bookclub diff")
}

func (p *Printer) Validation(rep domain.ValidationReport) {
	if rep.IsValid {
		p.Successf("本地排期校验通过")
		return
	}
	p.Errorf("本地排期校验失败:")
	for _, e := range rep.InvalidLeaders {
		p.Errorf("  未知领读人 %q: %s", e.LeaderName, FormatEntry(e))
	}
	for _, e := range rep.InvalidHosts {
		p.Errorf("  无效主持人 %q: %s", e.HostName, FormatEntry(e))
	}
	for _, g := range rep.DuplicateDates {
		p.Errorf("  重复日期 %s: %d项", g.Date, len(g.Entries))
	}
	for _, m := range rep.Malformed {
		p.Errorf("  格式错误 (%s): %s", m.Reason, FormatEntry(m.Entry))
	}
}

func (p *Printer) Report(rep domain.SyncReport) {
	p.Title(fmt.Sprintf("\n同步结果 (%s):", rep.Direction))
	for _, r := range rep.Results {
		switch r.Status {
		case domain.ItemCreated:
			p.Successf("%s 已创建 %s", r.Date, p.muted.Render(r.RemoteID))
		case domain.ItemUpdated:
			p.Successf("%s 已更新 %s", r.Date, p.muted.Render(r.RemoteID))
		default:
			p.Errorf("✗ %s 失败: %s", r.Date, r.Message)
		}
	}
	p.line(fmt.Sprintf("创建 %d, 更新 %d, 失败 %d", rep.TotalCreated, rep.TotalUpdated, rep.TotalErrors))
	if rep.LocalWritten > 0 || rep.Refreshed {
		p.Infof("本地排期已写入 %d 项", rep.LocalWritten)
	}
	for _, e := range rep.Dropped {
		p.Warnf("本地已移除: %s", FormatEntry(e))
	}
	if rep.RefreshError != "" {
		p.Warnf("刷新本地排期失败: %s", rep.RefreshError)
	}
	if rep.Error != "" {
		p.Errorf("同步失败: %s", rep.Error)
	}
}

func (p *Printer) Schedule(entries []domain.ScheduleEntry) {
	if len(entries) == 0 {
		p.Warnf("未找到排期记录")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("日期", "期数", "书名", "领读人", "主持人")
	for _, e := range entries {
		period := ""
		if n, ok := e.EffectivePeriod(); ok {
			period = strconv.Itoa(n)
		}
		t.Row(e.Date, period, e.BookName, e.Leader(), e.Host())
	}
	p.line(t.String())
	p.line(p.muted.Render(fmt.Sprintf("共 %d 条排期记录", len(entries))))
}

func (p *Printer) Analysis(a domain.ScheduleAnalysis) {
	p.Title("排期分析:")
	p.line(fmt.Sprintf("总场次: %d", a.Total))
	p.line(fmt.Sprintf("平均间隔: %.1f 天", a.AverageIntervalDays))
	p.line(fmt.Sprintf("领读人数: %d", a.UniqueLeaders))
	p.line(fmt.Sprintf("未来场次: %d", a.FutureCount))

	p.Title("\n星期分布:")
	p.counts(a.ByWeekday)
	p.Title("\n领读人分布:")
	p.counts(a.ByLeader)
	p.Title("\n年度分布:")
	p.counts(a.ByYear)

	if len(a.FutureWithoutLeader) > 0 {
		p.Warnf("\n未安排领读人的未来场次:")
		for _, e := range a.FutureWithoutLeader {
			p.Warnf("  %s", FormatEntry(e))
		}
	}
}

// counts affiche une distribution, les plus fréquents d'abord.
func (p *Printer) counts(m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		p.line(fmt.Sprintf("  %s: %d", k, m[k]))
	}
}

func (p *Printer) Fields(rep domain.FieldReport) {
	p.Title("Notion 数据库属性:")
	if rep.RemoteError != "" {
		p.Warnf("  不可用: %s", rep.RemoteError)
	}
	for _, prop := range rep.Remote {
		p.line(fmt.Sprintf("- %s (%s)", prop.Name, prop.Type))
	}

	p.Title("\n本地排期字段:")
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("字段", "出现", "非空", "类型", "示例")
	for _, f := range rep.Local {
		examples := make([]string, 0, len(f.Examples))
		for _, ex := range f.Examples {
			examples = append(examples, fmt.Sprint(ex))
		}
		t.Row(f.Name, strconv.Itoa(f.Count), strconv.Itoa(f.NonNullCount), strings.Join(f.Types, "/"), strings.Join(examples, ", "))
	}
	p.line(t.String())
}

func orUnset(s string) string {
	if domain.IsAbsent(s) {
		return domain.Unset
	}
	return s
}

func (p *Printer) Booklist(bl domain.Booklist) {
	p.Infof("共找到 %d 条记录, 符合过滤条件 %d 条", bl.Scanned, len(bl.Records))
	if len(bl.Records) == 0 {
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("排期", "期数", "书名", "领读人", "主持人", "作者", "进度")
	for _, r := range bl.Records {
		period := "未知"
		if n, ok := domain.PeriodFromTitle(r.BookName); ok {
			period = fmt.Sprintf("第%d期", n)
		}
		t.Row(orUnset(r.Date), period, orUnset(r.BookName), orUnset(r.LeaderName), orUnset(r.HostName), orUnset(r.Author), orUnset(r.Status))
	}
	p.line(t.String())

	st := bl.Stats
	p.Title("\n统计信息:")
	p.line(fmt.Sprintf("总记录数: %d", st.Total))
	p.line(fmt.Sprintf("已指定领读人: %d (%.1f%%)", st.WithLeader, domain.Percent(st.WithLeader, st.Total)))
	p.line(fmt.Sprintf("已指定主持人: %d (%.1f%%)", st.WithHost, domain.Percent(st.WithHost, st.Total)))
	p.line(fmt.Sprintf("已指定作者: %d (%.1f%%)", st.WithAuthor, domain.Percent(st.WithAuthor, st.Total)))
}

func (p *Printer) LatestRecord(rec domain.LatestRecord) {
	p.Title("最新记录: " + rec.ID)
	p.line(fmt.Sprintf("创建时间: %s", rec.CreatedTime.Local().Format("2006-01-02 15:04")))
	p.line(fmt.Sprintf("最后编辑时间: %s", rec.LastEditedTime.Local().Format("2006-01-02 15:04")))
	if rec.URL != "" {
		p.line("URL: " + rec.URL)
	}

	p.Title("\n属性:")
	for _, prop := range rec.Properties {
		p.line(fmt.Sprintf("- %s (%s): %s", prop.Name, prop.Type, prop.Value))
	}

	p.Title("\n内容块:")
	if len(rec.Blocks) == 0 {
		p.line(p.muted.Render("页面没有内容块"))
	}
	for i, b := range rec.Blocks {
		s := fmt.Sprintf("#%d (%s)", i+1, b.Type)
		if b.Text != "" {
			s += ": " + b.Text
		}
		if b.HasChildren {
			s += p.muted.Render(" [含子内容]")
		}
		p.line(s)
	}
}

func (p *Printer) Diagnosis(d domain.Diagnosis) {
	p.Title("本地排期:")
	switch {
	case d.LocalError != "":
		p.Errorf("  读取失败: %s", d.LocalError)
	case d.LocalValid:
		p.Successf("%d 条记录, 校验通过", d.LocalEntries)
	default:
		p.Warnf("  %d 条记录, 校验未通过", d.LocalEntries)
	}

	p.Title("\nNotion:")
	if d.Remote == nil {
		p.Errorf("  连接失败: %s", d.RemoteError)
		return
	}
	h := d.Remote
	name := h.DatabaseID
	if h.DatabaseTitle != "" {
		name = h.DatabaseTitle + " (" + h.DatabaseID + ")"
	}
	p.Successf("连接成功: %s, %d 个属性, 耗时 %s", name, h.Properties, h.Latency.Round(time.Millisecond))
	if len(h.Missing) > 0 {
		p.Warnf("  缺少属性: %s", strings.Join(h.Missing, ", "))
	}
}
