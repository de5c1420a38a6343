package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harrisonrobin/focus/pkg/auth"
	"github.com/harrisonrobin/focus/pkg/colors"
	"github.com/harrisonrobin/focus/pkg/config"
	"github.com/harrisonrobin/focus/pkg/gateway"
	"github.com/harrisonrobin/focus/pkg/google"
	"github.com/harrisonrobin/focus/pkg/local"
	"github.com/harrisonrobin/focus/pkg/model"
	"github.com/harrisonrobin/focus/pkg/queue"
	"github.com/harrisonrobin/focus/pkg/skiplimit"
	"github.com/harrisonrobin/focus/pkg/state"
	"github.com/harrisonrobin/focus/pkg/taskwarrior"
	"github.com/harrisonrobin/focus/pkg/tui"
)

const logFile = "focus.log"

func main() {
	// 1. Parse Flags
	backend := flag.String("backend", "", "Task backend: google, taskwarrior or local (overrides config)")
	setBackend := flag.String("set-backend", "", "Set the default task backend")
	doAuth := flag.Bool("auth", false, "Sign in with Google")
	signOut := flag.Bool("signout", false, "Forget the stored Google session")
	sortPref := flag.String("sort", "", "Persist the sort preference: quick or hard")
	showStatus := flag.Bool("status", false, "Print the current task and exit")
	addTask := flag.String("add-task", "", "Add a task to the local backend")
	project := flag.String("project", "Inbox", "Project for -add-task")
	howText := flag.String("how", "", "How-explanation for -add-task, e.g. \"about 20 minutes\"")
	flag.Parse()

	ctx := context.Background()

	// 2. Load Config (Priority: Flag > Config > Default)
	dir, err := config.Dir()
	if err != nil {
		log.Fatalf("could not find configuration directory: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: could not load config, using defaults: %v", err)
		cfg = config.Default()
	}
	if *setBackend != "" {
		cfg.Backend = *setBackend
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Error: %v", err)
		}
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error saving config: %v", err)
		}
		fmt.Printf("Default backend set to: %s\n", cfg.Backend)
		return
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	// 3. Skip quota and sort preference
	store, err := state.NewStore(dir)
	if err != nil {
		log.Fatalf("could not open state: %v", err)
	}
	tracker := skiplimit.New(store, cfg.MaxSkipsPerDay)

	if *sortPref != "" {
		pref, ok := model.ParseSortPreference(*sortPref)
		if !ok {
			log.Fatalf("unknown sort preference %q, use quick or hard", *sortPref)
		}
		if err := tracker.SetSortPreference(pref); err != nil {
			log.Fatalf("Error saving sort preference: %v", err)
		}
		fmt.Printf("Sorting: %s\n", pref.Label())
		return
	}

	// 4. Handle Authentication
	authenticator := auth.NewAuthenticator(dir)
	if *signOut {
		if err := authenticator.SignOut(); err != nil {
			log.Fatalf("Sign out failed: %v", err)
		}
		fmt.Println("Signed out.")
		return
	}
	if *doAuth {
		user, err := authenticator.SignIn(ctx)
		if err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		fmt.Printf("Signed in as %s\n", user.Email)
		return
	}

	// 5. Handle Local Task Entry
	if *addTask != "" {
		if cfg.Backend != config.BackendLocal {
			log.Fatalf("-add-task only works with the local backend (current: %s)", cfg.Backend)
		}
		ls, err := local.Open(cfg.LocalPath)
		if err != nil {
			log.Fatalf("Error opening local store: %v", err)
		}
		task, err := ls.AddTask(local.UserID, *project, *addTask, *howText)
		if err != nil {
			log.Fatalf("Error adding task: %v", err)
		}
		fmt.Printf("Added %q (%s)\n", task.Content, task.ID)
		return
	}

	// 6. Connect to the backend
	gw, user, err := openBackend(ctx, cfg, authenticator)
	if err != nil {
		log.Fatalf("Error connecting to %s backend: %v", cfg.Backend, err)
	}
	session, err := gateway.NewSession(gw, user)
	if err != nil {
		log.Fatalf("Error starting session: %v", err)
	}

	q := queue.New(session, tracker)
	q.Subscribe(func(st queue.Status) {
		log.Printf("Queue %s: %d pending %s", st.State, st.Pending, st.Message)
	})

	// 7. Status Mode
	if *showStatus {
		if err := printStatus(ctx, q, tracker); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	// 8. Interactive Mode. The TUI owns the terminal from here on.
	closeLog, err := redirectLog(filepath.Join(dir, logFile))
	if err != nil {
		log.Printf("Warning: could not open log file: %v", err)
	} else {
		defer closeLog()
	}

	cache, err := colors.NewColorCache(dir)
	if err != nil {
		log.Printf("Warning: could not load color cache: %v", err)
	}
	var palette tui.Colors
	if cache != nil {
		palette = cache
	}

	app := tui.NewApp(ctx, q, tracker, palette)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("Error running UI: %v", err)
	}
	if cache != nil {
		if err := cache.Save(); err != nil {
			log.Printf("Warning: failed to save color cache: %v", err)
		}
	}
}

// openBackend builds the configured gateway and resolves the user it acts for.
func openBackend(ctx context.Context, cfg *config.Config, authenticator *auth.Authenticator) (gateway.Gateway, *gateway.User, error) {
	switch cfg.Backend {
	case config.BackendTaskwarrior:
		return taskwarrior.NewClient(cfg.TaskwarriorFilter...), &gateway.User{ID: currentUsername()}, nil

	case config.BackendLocal:
		ls, err := local.Open(cfg.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		return ls, &gateway.User{ID: local.UserID}, nil

	default:
		httpClient, err := authenticator.Client(ctx, true)
		if err != nil {
			return nil, nil, err
		}
		user, err := auth.CurrentUser(ctx, httpClient)
		if err != nil {
			return nil, nil, err
		}
		tc, err := google.NewClient(ctx, httpClient)
		if err != nil {
			return nil, nil, err
		}
		return tc, user, nil
	}
}

func printStatus(ctx context.Context, q *queue.Queue, tracker *skiplimit.Tracker) error {
	if err := q.Refresh(ctx); err != nil {
		return err
	}
	st := q.Status()
	fmt.Printf("Sorting: %s\n", tracker.SortPreference().Label())
	fmt.Printf("Skips remaining: %d/%d\n", tracker.Remaining(), tracker.DailyMax())
	if st.Current == nil {
		fmt.Println("All done! No pending tasks.")
		return nil
	}
	t := st.Current
	fmt.Printf("Pending: %d\n\n", st.Pending)
	fmt.Printf("%s\n  project: %s\n", t.Content, q.ProjectName(t.ProjectID))
	if d, ok := t.EstimatedDuration(); ok {
		fmt.Printf("  estimate: %d min\n", d)
	}
	if how := t.Explanation(); how != "" {
		fmt.Printf("  how: %s\n", how)
	}
	return nil
}

func redirectLog(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func currentUsername() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "taskwarrior"
}
