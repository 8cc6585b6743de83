package wizardcmder

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/demoforge/demoforge/pkg/brandfetch"
	"github.com/demoforge/demoforge/pkg/cliui"
	"github.com/demoforge/demoforge/pkg/storage"
	"github.com/demoforge/demoforge/pkg/wizard"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

// phase is the wizard TUI's current screen.
type phase int

const (
	phaseForm phase = iota
	phaseVertical
	phaseSubVertical
	phaseBrandFetch
	phaseLogo
	phaseColor
	phaseDone
)

// Form text input indexes.
const (
	fieldCompany = iota
	fieldDomain
	fieldAudience
	fieldUseCases
	fieldRecords
	fieldCount
)

const defaultRecords = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

var fieldLabels = [fieldCount]string{
	"Company name",
	"Company domain",
	"Demo audience",
	"Use cases (optional)",
	"Records per table",
}

// choiceItem is a generic list entry.
type choiceItem struct {
	title string
	desc  string
}

func (i choiceItem) Title() string       { return i.title }
func (i choiceItem) Description() string { return i.desc }
func (i choiceItem) FilterValue() string { return i.title }

// brandMsg carries the Brandfetch lookup result.
type brandMsg struct {
	brand *brandfetch.Brand
	err   error
}

// savedMsg reports the session persistence outcome.
type savedMsg struct {
	err error
}

type model struct {
	store  storage.Driver
	brands *brandfetch.Client

	phase      phase
	inputs     [fieldCount]textinput.Model
	focusIndex int
	formErr    string

	verticals list.Model
	subs      list.Model
	logos     list.Model
	colors    list.Model
	spin      spinner.Model

	vertical    string
	subVertical string
	brandNote   string

	session *wizard.Session
	saveErr error
	width   int
	height  int
}

func newModel(store storage.Driver, brands *brandfetch.Client) model {
	m := model{
		store:  store,
		brands: brands,
		phase:  phaseForm,
	}

	for i := range m.inputs {
		ti := textinput.New()
		ti.CharLimit = 120
		m.inputs[i] = ti
	}
	m.inputs[fieldCompany].Placeholder = "Acme Corp"
	m.inputs[fieldDomain].Placeholder = "acme.com"
	m.inputs[fieldAudience].Placeholder = "retail executives"
	m.inputs[fieldUseCases].Placeholder = "sales analytics, support search"
	m.inputs[fieldRecords].Placeholder = strconv.Itoa(defaultRecords)
	m.inputs[fieldCompany].Focus()

	items := make([]list.Item, len(wizard.Verticals))
	for i, v := range wizard.Verticals {
		items[i] = choiceItem{title: v}
	}
	m.verticals = newChoiceList("Pick an industry vertical", items)

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	return m
}

func newChoiceList(title string, items []list.Item) list.Model {
	delegate := list.NewDefaultDelegate()
	l := list.New(items, delegate, 60, 18)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.verticals, &m.subs, &m.logos, &m.colors} {
			l.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case brandMsg:
		return m.handleBrand(msg)

	case savedMsg:
		m.saveErr = msg.err
		m.phase = phaseDone
		return m, nil
	}

	switch m.phase {
	case phaseForm:
		return m.updateForm(msg)
	case phaseVertical:
		return m.updateVertical(msg)
	case phaseSubVertical:
		return m.updateSubVertical(msg)
	case phaseLogo:
		return m.updateLogo(msg)
	case phaseColor:
		return m.updateColor(msg)
	case phaseDone:
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m.focusField(m.focusIndex + 1), nil
		case "shift+tab", "up":
			return m.focusField(m.focusIndex - 1), nil
		case "enter":
			if m.focusIndex < fieldCount-1 {
				return m.focusField(m.focusIndex + 1), nil
			}
			if err := m.validateFormFields(); err != "" {
				m.formErr = err
				return m, nil
			}
			m.formErr = ""
			m.phase = phaseVertical
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m model) focusField(index int) model {
	if index < 0 {
		index = 0
	}
	if index >= fieldCount {
		index = fieldCount - 1
	}
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = index
	m.inputs[m.focusIndex].Focus()
	return m
}

// validateFormFields checks the free-text fields before the vertical pick.
// Returns an empty string when the form is acceptable.
func (m model) validateFormFields() string {
	if strings.TrimSpace(m.inputs[fieldCompany].Value()) == "" {
		return "company name is required"
	}
	if strings.TrimSpace(m.inputs[fieldDomain].Value()) == "" {
		return "company domain is required"
	}
	if strings.TrimSpace(m.inputs[fieldAudience].Value()) == "" {
		return "demo audience is required"
	}
	if v := strings.TrimSpace(m.inputs[fieldRecords].Value()); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return "records per table must be a positive number"
		}
	}
	return ""
}

func (m model) updateVertical(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		item, ok := m.verticals.SelectedItem().(choiceItem)
		if !ok {
			return m, nil
		}
		m.vertical = item.title

		if subs := wizard.SubVerticals[m.vertical]; len(subs) > 0 {
			items := make([]list.Item, len(subs))
			for i, s := range subs {
				items[i] = choiceItem{title: s}
			}
			m.subs = newChoiceList("Pick a sub-vertical", items)
			m.subs.SetSize(m.width-4, m.height-6)
			m.phase = phaseSubVertical
			return m, nil
		}

		return m.startBrandLookup()
	}

	var cmd tea.Cmd
	m.verticals, cmd = m.verticals.Update(msg)
	return m, cmd
}

func (m model) updateSubVertical(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		item, ok := m.subs.SelectedItem().(choiceItem)
		if !ok {
			return m, nil
		}
		m.subVertical = item.title
		return m.startBrandLookup()
	}

	var cmd tea.Cmd
	m.subs, cmd = m.subs.Update(msg)
	return m, cmd
}

// startBrandLookup fires the Brandfetch request, or skips straight to saving
// when no client is configured.
func (m model) startBrandLookup() (tea.Model, tea.Cmd) {
	if m.brands == nil {
		m.brandNote = "no Brandfetch key configured, brand step skipped"
		return m.save(wizard.BrandChoice{})
	}

	m.phase = phaseBrandFetch
	domain := strings.TrimSpace(m.inputs[fieldDomain].Value())
	brands := m.brands

	fetch := func() tea.Msg {
		brand, err := brands.Brand(context.Background(), domain)
		return brandMsg{brand: brand, err: err}
	}

	return m, tea.Batch(m.spin.Tick, fetch)
}

func (m model) handleBrand(msg brandMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || msg.brand == nil {
		m.brandNote = "brand lookup failed, brand step skipped"
		return m.save(wizard.BrandChoice{})
	}

	logos := msg.brand.LogoURLs(3)
	colors := msg.brand.ColorHexes(3)
	if len(logos) == 0 || len(colors) == 0 {
		m.brandNote = "no brand assets found, brand step skipped"
		return m.save(wizard.BrandChoice{})
	}

	logoItems := make([]list.Item, len(logos))
	for i, u := range logos {
		logoItems[i] = choiceItem{title: fmt.Sprintf("Logo %d", i+1), desc: u}
	}
	m.logos = newChoiceList("Pick a logo", logoItems)
	m.logos.SetSize(m.width-4, m.height-6)

	colorItems := make([]list.Item, len(colors))
	for i, hex := range colors {
		colorItems[i] = choiceItem{title: hex, desc: cliui.Banner("sample", hex)}
	}
	m.colors = newChoiceList("Pick a brand color", colorItems)
	m.colors.SetSize(m.width-4, m.height-6)

	m.phase = phaseLogo
	return m, nil
}

func (m model) updateLogo(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		m.phase = phaseColor
		return m, nil
	}

	var cmd tea.Cmd
	m.logos, cmd = m.logos.Update(msg)
	return m, cmd
}

func (m model) updateColor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		logo, _ := m.logos.SelectedItem().(choiceItem)
		color, _ := m.colors.SelectedItem().(choiceItem)
		return m.save(wizard.BrandChoice{
			LogoURL:  logo.desc,
			ColorHex: color.title,
		})
	}

	var cmd tea.Cmd
	m.colors, cmd = m.colors.Update(msg)
	return m, cmd
}

// save runs the state machine transitions and persists the session.
func (m model) save(choice wizard.BrandChoice) (tea.Model, tea.Cmd) {
	form := wizard.Form{
		CompanyName:     strings.TrimSpace(m.inputs[fieldCompany].Value()),
		Domain:          strings.TrimSpace(m.inputs[fieldDomain].Value()),
		Vertical:        m.vertical,
		SubVertical:     m.subVertical,
		Audience:        strings.TrimSpace(m.inputs[fieldAudience].Value()),
		UseCases:        strings.TrimSpace(m.inputs[fieldUseCases].Value()),
		RecordsPerTable: m.records(),
	}

	sess := wizard.NewSession()
	if err := sess.SubmitForm(form); err != nil {
		m.formErr = err.Error()
		m.phase = phaseForm
		return m, nil
	}

	if choice.LogoURL != "" && choice.ColorHex != "" {
		if err := sess.ChooseBrand(choice); err != nil {
			m.saveErr = err
			m.phase = phaseDone
			return m, nil
		}
	}

	m.session = sess
	store := m.store

	persist := func() tea.Msg {
		brand := sess.Brand()
		return savedMsg{err: store.PutSession(context.Background(), &storage.Session{
			ID:              sess.ID,
			CompanyName:     form.CompanyName,
			Domain:          form.Domain,
			Vertical:        form.Vertical,
			SubVertical:     form.SubVertical,
			Audience:        form.Audience,
			RecordsPerTable: form.RecordsPerTable,
			LogoURL:         brand.LogoURL,
			ColorHex:        brand.ColorHex,
			State:           string(sess.State()),
			CreatedAt:       sess.CreatedAt,
			UpdatedAt:       time.Now().UTC(),
		})}
	}

	return m, persist
}

func (m model) records() int {
	v := strings.TrimSpace(m.inputs[fieldRecords].Value())
	if v == "" {
		return defaultRecords
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return defaultRecords
	}
	return n
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render("demoforge wizard") + "\n\n")

	switch m.phase {
	case phaseForm:
		for i := range m.inputs {
			label := fieldLabels[i]
			if i == m.focusIndex {
				b.WriteString("  " + activeStyle.Render("▸ "+label) + "\n")
			} else {
				b.WriteString("  " + labelStyle.Render("  "+label) + "\n")
			}
			b.WriteString("    " + m.inputs[i].View() + "\n\n")
		}
		if m.formErr != "" {
			b.WriteString("  " + errorStyle.Render(m.formErr) + "\n\n")
		}
		b.WriteString("  " + labelStyle.Render("tab/enter: next field · enter on last field: continue · ctrl+c: quit") + "\n")

	case phaseVertical:
		b.WriteString(m.verticals.View())

	case phaseSubVertical:
		b.WriteString(m.subs.View())

	case phaseBrandFetch:
		b.WriteString("  " + m.spin.View() + " Looking up brand assets...\n")

	case phaseLogo:
		b.WriteString(m.logos.View())

	case phaseColor:
		b.WriteString(m.colors.View())

	case phaseDone:
		if m.saveErr != nil {
			b.WriteString("  " + errorStyle.Render("failed to save session: "+m.saveErr.Error()) + "\n")
		} else {
			b.WriteString("  Session saved.\n")
			if m.brandNote != "" {
				b.WriteString("  " + labelStyle.Render(m.brandNote) + "\n")
			}
		}
		b.WriteString("\n  " + labelStyle.Render("press any key to exit") + "\n")
	}

	return b.String()
}

// printSummary prints the result after the TUI releases the terminal.
func (m model) printSummary() {
	if m.session == nil {
		return
	}

	form := m.session.Form()
	brand := m.session.Brand()

	fmt.Println()
	fmt.Printf("  %s\n\n", cliui.Banner(form.CompanyName, brand.ColorHex))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.ValueStyle.Render(m.session.ID))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Vertical:"), cliui.ValueStyle.Render(form.Vertical))
	if form.SubVertical != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Sub-vertical:"), cliui.ValueStyle.Render(form.SubVertical))
	}
	if brand.LogoURL != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Logo:"), cliui.DimStyle.Render(brand.LogoURL))
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Color:"), cliui.ValueStyle.Render(brand.ColorHex))
	}

	fmt.Println()
	fmt.Printf("  %s\n", cliui.DimStyle.Render("Next:"))
	fmt.Printf("    demoforge provision --company %q --domain %q --vertical %q --audience %q\n",
		form.CompanyName, form.Domain, form.Vertical, form.Audience)
	fmt.Printf("    demoforge chat\n\n")
}
