// Package main is a minimal line-oriented view layer over the client core.
// It owns the wiring: config, logger, session, gateway client, project
// selector, conversation store.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/openworkbench/chatcore/internal/auth"
	"github.com/openworkbench/chatcore/internal/config"
	"github.com/openworkbench/chatcore/internal/gateway"
	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/internal/prefs"
	"github.com/openworkbench/chatcore/internal/project"
	"github.com/openworkbench/chatcore/internal/store"
	"github.com/openworkbench/chatcore/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "chatctl",
		Usage: "talk to the assistant backend from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "gateway", Usage: "gateway base URL", EnvVars: []string{"GATEWAY_URL"}},
			&cli.StringFlag{Name: "token", Usage: "bearer token", EnvVars: []string{"AUTH_TOKEN"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "interactive chat in the active conversation",
				Action: runChat,
			},
			{
				Name:   "conversations",
				Usage:  "list conversations",
				Action: runConversations,
			},
			{
				Name:   "projects",
				Usage:  "list projects",
				Action: runProjects,
			},
			{
				Name:   "templates",
				Usage:  "list prompt templates",
				Action: runTemplates,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env assembles the client core for one invocation.
type env struct {
	session  *auth.Session
	store    *store.Store
	selector *project.Selector
	gw       gateway.Gateway
}

func buildEnv(c *cli.Context) (*env, error) {
	cfg := config.Load()
	if v := c.String("gateway"); v != "" {
		cfg.GatewayURL = v
	}
	if v := c.String("token"); v != "" {
		cfg.AuthToken = v
	}

	session, err := auth.SessionFromToken(cfg.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("not authenticated: %w (set AUTH_TOKEN)", err)
	}

	log, err := logger.New("warn")
	if err != nil {
		return nil, err
	}

	pr, err := prefs.NewStore(cfg.PrefsDir)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewHTTPGateway(cfg.GatewayURL, session.Token, cfg.RequestTimeout)
	selector := project.NewSelector(gw, pr, log, session.UserID)
	st := store.New(gw, pr, selector, log, session.UserID)

	return &env{session: session, store: st, selector: selector, gw: gw}, nil
}

func runChat(c *cli.Context) error {
	e, err := buildEnv(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	if err := e.selector.Load(ctx); err != nil {
		return err
	}
	if err := e.store.RefreshList(ctx); err != nil {
		return err
	}

	if active := e.store.Active(); active != nil {
		fmt.Printf("resuming %q (%d messages)\n", titleOf(&active.Conversation), active.MessageCount)
		for i := range active.Messages {
			printMessage(&active.Messages[i])
		}
	} else {
		fmt.Println("no active conversation; the first message starts one")
	}
	fmt.Println(`type a message, or "/quit" to exit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return nil
		}

		tempID, err := e.store.SendMessage(ctx, e.store.ActiveID(), line, nil)
		if err != nil {
			fmt.Printf("send failed: %v\n", err)
			if tempID != "" {
				fmt.Println(`the message is kept; press enter to retry it or "/drop" to discard`)
				if scanner.Scan() && strings.TrimSpace(scanner.Text()) == "/drop" {
					if err := e.store.DeleteOptimistic(tempID); err != nil {
						fmt.Printf("drop failed: %v\n", err)
					}
					continue
				}
				if err := e.store.Retry(ctx, tempID); err != nil {
					fmt.Printf("retry failed: %v\n", err)
					continue
				}
			} else {
				continue
			}
		}

		if active := e.store.Active(); active != nil && len(active.Messages) > 0 {
			last := active.Messages[len(active.Messages)-1]
			if !last.IsFromUser {
				fmt.Printf("assistant: %s\n", last.Text())
			}
		}
	}
}

func runConversations(c *cli.Context) error {
	e, err := buildEnv(c)
	if err != nil {
		return err
	}
	if err := e.store.RefreshList(c.Context); err != nil {
		return err
	}
	activeID := e.store.ActiveID()
	for _, conv := range e.store.Conversations() {
		marker := " "
		if conv.ID == activeID {
			marker = "*"
		}
		fmt.Printf("%s %s  %-40q  %d messages\n", marker, conv.ID, titleOf(&conv), conv.MessageCount)
	}
	return nil
}

func runProjects(c *cli.Context) error {
	e, err := buildEnv(c)
	if err != nil {
		return err
	}
	if err := e.selector.Load(c.Context); err != nil {
		return err
	}
	activeID := e.selector.ActiveID()
	for _, p := range e.selector.Projects() {
		marker := " "
		if p.ID == activeID {
			marker = "*"
		}
		fmt.Printf("%s %s  %s (%s/%s)\n", marker, p.ID, p.Name, p.Type, p.Stage)
	}
	return nil
}

func runTemplates(c *cli.Context) error {
	e, err := buildEnv(c)
	if err != nil {
		return err
	}
	templates, err := e.gw.ListTemplates(c.Context)
	if err != nil {
		return err
	}
	for _, t := range templates {
		fmt.Printf("%s  %-20s [%s]\n", t.ID, t.Name, t.Category)
	}
	return nil
}

func printMessage(m *model.Message) {
	who := "assistant"
	if m.IsFromUser {
		who = "you"
	}
	fmt.Printf("%s: %s\n", who, m.Text())
}

func titleOf(c *model.Conversation) string {
	if c.Title != "" {
		return c.Title
	}
	return "(untitled)"
}
