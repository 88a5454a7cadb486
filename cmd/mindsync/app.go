package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sandeepkv93/mindsync/internal/commands"
	"github.com/sandeepkv93/mindsync/internal/config"
	"github.com/sandeepkv93/mindsync/internal/logger"
	"github.com/sandeepkv93/mindsync/internal/model"
	"github.com/sandeepkv93/mindsync/internal/notify"
	"github.com/sandeepkv93/mindsync/internal/scheduler"
	"github.com/sandeepkv93/mindsync/internal/storage"
	"github.com/sandeepkv93/mindsync/internal/update"
	"github.com/urfave/cli"
)

var configPath string

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mindsync"
	app.Usage = "terminal reminders with desktop notifications"
	app.UsageText = "mindsync [--config FILE] [command] [arguments...]"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the YAML config file",
			Value:       config.GetDefaultConfigPath(),
			Destination: &configPath,
			EnvVar:      "MINDSYNC_CONFIG",
		},
	}
	app.Action = runTUI
	app.Commands = []cli.Command{
		{
			Name:    "list",
			Aliases: []string{"l"},
			Usage:   "print reminders in due order",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "limit, n", Usage: "print at most `N` reminders"},
				cli.IntFlag{Name: "offset", Usage: "skip the first `N` reminders"},
			},
			Action: listReminders,
		},
		{
			Name:      "add",
			Aliases:   []string{"a"},
			Usage:     "add a reminder",
			ArgsUsage: "<YYYY-MM-DD|today|tomorrow> <HH:MM[:SS]|+duration> [p1|p2|p3] <title> [-- description]",
			Action:    addReminder,
			// "--" belongs to the description, not to flag parsing.
			SkipArgReorder: true,
		},
		{
			Name:      "delete",
			Aliases:   []string{"rm"},
			Usage:     "delete a reminder by id prefix",
			ArgsUsage: "<id-prefix>",
			Action:    deleteReminder,
		},
	}
	return app
}

type session struct {
	cfg   *config.Config
	log   logger.Logger
	repo  *storage.SQLiteRepository
	store *storage.ReminderStore
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var log logger.Logger = logger.NewNopLogger()
	if cfg.Log.Path != "" {
		fileLog, err := logger.OpenFile(cfg.Log.Path)
		if err != nil {
			return nil, err
		}
		log = fileLog
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		_ = log.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := storage.OpenSQLite(cfg.Database.Path)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	log.Info("opened store at %s for user %s", cfg.Database.Path, cfg.UserID)
	return &session{
		cfg:   cfg,
		log:   log,
		repo:  repo,
		store: storage.NewReminderStore(repo),
	}, nil
}

func (rt *session) Close() {
	if err := rt.repo.Close(); err != nil {
		rt.log.Error("close store: %v", err)
	}
	_ = rt.log.Close()
}

func runTUI(_ *cli.Context) error {
	rt, err := openSession()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	capable := notify.DesktopCapable
	if !rt.cfg.Notify.Desktop {
		capable = func() bool { return false }
	}
	gate := notify.NewGate(capable, notify.ReadlinePrompter{}, storage.NewPermissionDecisions(rt.repo), rt.log)
	gate.Request(ctx)

	var display notify.Displayer
	if rt.cfg.Notify.Desktop {
		display = notify.ExecDisplayer{}
	}
	var sound notify.Player
	if rt.cfg.Notify.Sound {
		sound = notify.ExecPlayer{File: rt.cfg.Notify.SoundFile}
	}
	sink := notify.NewDesktopSink(display, sound, gate, rt.log)

	sched := scheduler.New(rt.cfg.SchedulerConfig(), sink, scheduler.WithLogger(rt.log))
	sched.Start()
	defer func() {
		sched.Stop()
		sink.Wait()
		if n := sched.Dropped(); n > 0 {
			rt.log.Warning("%d delivery events were not shown in the UI", n)
		}
	}()

	view := update.NewModel(rt.store, sched, update.Config{
		UserID:     rt.cfg.UserID,
		Location:   time.Local,
		Permission: gate.State(),
	})
	if _, err := tea.NewProgram(view, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

func listReminders(c *cli.Context) error {
	limit, offset := c.Int("limit"), c.Int("offset")
	if limit < 0 || offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}

	rt, err := openSession()
	if err != nil {
		return err
	}
	defer rt.Close()

	items, err := rt.store.ListPage(context.Background(), rt.cfg.UserID, limit, offset)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no reminders")
		return nil
	}
	now := time.Now()
	for _, r := range items {
		rel := "invalid due time"
		if due, err := r.DueAt(time.Local); err == nil {
			rel = humanize.RelTime(due, now, "ago", "from now")
		}
		fmt.Printf("%-8.8s  %s  %s %s  %s (%s)\n", r.ID, r.Priority, r.Date, r.Time, r.Title, rel)
	}
	return nil
}

func addReminder(c *cli.Context) error {
	cmd, err := commands.Parse("add " + strings.Join(c.Args(), " "))
	if err != nil {
		return err
	}
	date, clock, err := cmd.Add.Resolve(time.Now())
	if err != nil {
		return err
	}

	rt, err := openSession()
	if err != nil {
		return err
	}
	defer rt.Close()

	created, err := rt.store.Create(context.Background(), model.Reminder{
		UserID:      rt.cfg.UserID,
		Title:       cmd.Add.Title,
		Description: cmd.Add.Description,
		Priority:    cmd.Add.Priority,
		Date:        date,
		Time:        clock,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %s: %s at %s %s\n", created.ID, created.Title, created.Date, created.Time)
	return nil
}

func deleteReminder(c *cli.Context) error {
	prefix := strings.ToLower(strings.TrimSpace(c.Args().First()))
	if prefix == "" {
		return fmt.Errorf("delete requires a reminder id")
	}

	rt, err := openSession()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	items, err := rt.store.List(ctx, rt.cfg.UserID)
	if err != nil {
		return err
	}
	var matches []model.Reminder
	for _, r := range items {
		if strings.HasPrefix(strings.ToLower(r.ID), prefix) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return fmt.Errorf("no reminder matches %q", prefix)
	case 1:
	default:
		return fmt.Errorf("%q matches %d reminders", prefix, len(matches))
	}
	if err := rt.store.Delete(ctx, matches[0].ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s: %s\n", matches[0].ID, matches[0].Title)
	return nil
}
