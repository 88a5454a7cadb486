package update

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/sandeepkv93/mindsync/internal/model"
	"github.com/sandeepkv93/mindsync/internal/notify"
	"github.com/sandeepkv93/mindsync/internal/scheduler"
)

const (
	maxDeliveryLog    = 20
	maxNotifications  = 40
	defaultReqTimeout = 5 * time.Second
)

type Store interface {
	List(ctx context.Context, userID string) ([]model.Reminder, error)
	Create(ctx context.Context, r model.Reminder) (model.Reminder, error)
	Delete(ctx context.Context, id string) error
}

// Scheduler is re-armed with the full list after every load and mutation.
type Scheduler interface {
	Reconcile(ctx context.Context, reminders []model.Reminder) error
	C() <-chan scheduler.Delivery
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Add     string
	Delete  string
	Refresh string
	Palette string
	Help    string
	Quit    string
}

type Config struct {
	UserID     string
	Location   *time.Location
	Permission notify.Permission
	Timeout    time.Duration
}

type Model struct {
	UserID        string
	Reminders     []model.Reminder
	Cursor        int
	SelectedID    string
	Deliveries    []scheduler.Delivery
	Delivered     map[string]bool
	Permission    notify.Permission
	Palette       CommandPaletteState
	HelpVisible   bool
	Notifications []Notification
	Status        StatusBar
	Keys          GlobalKeyMap
	Loading       bool
	Quitting      bool
	LastError     error

	store     Store
	scheduler Scheduler
	loc       *time.Location
	timeout   time.Duration
	now       func() time.Time

	// syncMu orders store writes and List+Reconcile across commands. Model
	// is copied on every Update, so the copies share one mutex.
	syncMu *sync.Mutex

	reminderList   list.Model
	commandInput   textinput.Model
	helpModel      help.Model
	detailViewport viewport.Model
	detailSource   string
	loadSpinner    spinner.Model
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type AppErrorMsg struct {
	Err error
}

// RemindersLoadedMsg carries a fresh list from the store. ReconcileErr is
// set when some reminders could not be scheduled; the list is still shown.
type RemindersLoadedMsg struct {
	Items        []model.Reminder
	Note         string
	Err          error
	ReconcileErr error
}

type DeliveryMsg struct {
	Delivery scheduler.Delivery
}

func NewModel(store Store, sched Scheduler, cfg Config) Model {
	m := Model{
		UserID:     cfg.UserID,
		Delivered:  make(map[string]bool),
		Permission: cfg.Permission,
		Keys: GlobalKeyMap{
			Add:     "a",
			Delete:  "d",
			Refresh: "r",
			Palette: "/",
			Help:    "?",
			Quit:    "q",
		},
		store:     store,
		scheduler: sched,
		loc:       cfg.Location,
		timeout:   cfg.Timeout,
		now:       time.Now,
		syncMu:    &sync.Mutex{},
		Loading:   true,
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.timeout <= 0 {
		m.timeout = defaultReqTimeout
	}
	if m.Permission == "" {
		m.Permission = notify.PermissionDefault
	}
	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	m.reminderList = list.New([]list.Item{}, list.NewDefaultDelegate(), 60, 12)
	m.reminderList.Title = "Reminders"
	m.reminderList.SetShowHelp(false)
	m.reminderList.SetFilteringEnabled(false)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.loadSpinner = spinner.New()
	m.loadSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.detailViewport = viewport.New(48, 10)
}
