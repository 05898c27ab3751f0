package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quiz-admin-console/internal/api"
	"quiz-admin-console/internal/config"
	"quiz-admin-console/internal/render"
	"quiz-admin-console/internal/state"
	"quiz-admin-console/internal/syncer"
)

// NewConsoleCmd builds the CLI subcommand to run the admin console.
func NewConsoleCmd(configPath, backendURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run the quiz admin console against a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), *configPath, *backendURL)
		},
	}
}

func runConsole(ctx context.Context, configPath, backendFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseURL := backendFlag
	if baseURL == "" {
		baseURL = cfg.Backend.URL
	}
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}

	pollTimeout := config.Duration(cfg.Sync.PollTimeout, syncer.DefaultPollTimeout)
	// The HTTP timeout must outlive a full long-poll plus network slack,
	// or every quiet poll would count as a failure.
	client := api.NewClient(baseURL, &http.Client{Timeout: pollTimeout + 15*time.Second})
	store := state.NewStore()
	renderer := render.NewConsole(os.Stdout, cfg.NumberOfQuestions())
	loop := syncer.New(client, store, renderer, syncer.Config{
		PollTimeout:   pollTimeout,
		Backoff:       config.Duration(cfg.Sync.Backoff, syncer.DefaultBackoff),
		FailureBudget: cfg.Sync.FailureBudget,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		commandLoop(ctx, os.Stdin, os.Stdout, client, store, renderer, cfg.NumberOfQuestions())
	}()

	select {
	case err := <-loopErr:
		if errors.Is(err, syncer.ErrGaveUp) {
			log.Printf("console stopped syncing; restart to resume")
			return err
		}
		return err
	case <-quit:
		cancel()
		<-loopErr
		return nil
	}
}

// commandLoop reads operator commands from in until EOF or "exit". All
// quiz mutations go through the command channel; their effect shows up
// only via the next delta, never by touching the store directly.
func commandLoop(ctx context.Context, in io.Reader, out io.Writer, client *api.Client, store *state.Store, renderer *render.Console, numberOfQuestions int) {
	printHelp(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmdCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := runCommand(cmdCtx, out, fields, client, store, renderer, numberOfQuestions)
		cancel()
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

var errQuit = errors.New("quit")

func runCommand(ctx context.Context, out io.Writer, fields []string, client *api.Client, store *state.Store, renderer *render.Console, numberOfQuestions int) error {
	switch fields[0] {
	case "help":
		printHelp(out)
	case "exit":
		return errQuit
	case "redraw":
		renderer.Redraw(store)
	case "quiz":
		switch {
		case len(fields) == 2 && fields[1] == "stop":
			return client.StopQuiz(ctx)
		case len(fields) >= 3 && fields[1] == "start":
			language := "en"
			if len(fields) > 3 {
				language = fields[3]
			}
			return client.StartQuiz(ctx, fields[2], language)
		default:
			return errors.New("usage: quiz start <quizId> [language] | quiz stop")
		}
	case "registration":
		if len(fields) != 2 {
			return errors.New("usage: registration start|stop")
		}
		if fields[1] == "start" {
			return client.StartRegistration(ctx)
		}
		return client.StopRegistration(ctx)
	case "question":
		if len(fields) != 2 {
			return errors.New("usage: question start|stop")
		}
		if fields[1] == "start" {
			return client.StartQuestion(ctx, store.ViewedQuestion())
		}
		return client.StopQuestion(ctx)
	case "view":
		if len(fields) != 2 {
			return errors.New("usage: view <question>")
		}
		question, err := strconv.Atoi(fields[1])
		if err != nil || question < 1 || question > numberOfQuestions {
			return fmt.Errorf("question must be 1..%d", numberOfQuestions)
		}
		store.SetViewedQuestion(question)
		renderer.Redraw(store)
	case "next", "prev":
		question := store.ViewedQuestion()
		if fields[0] == "next" {
			question++
			if question > numberOfQuestions {
				question = 1
			}
		} else {
			question--
			if question < 1 {
				question = numberOfQuestions
			}
		}
		store.SetViewedQuestion(question)
		renderer.Redraw(store)
	case "correct", "wrong":
		if len(fields) != 2 {
			return fmt.Errorf("usage: %s <teamId>", fields[0])
		}
		teamID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return errors.New("teamId must be a number")
		}
		points := 1
		if fields[0] == "wrong" {
			points = 0
		}
		return client.SetAnswerPoints(ctx, store.ViewedQuestion(), teamID, points)
	case "points":
		if len(fields) != 3 {
			return errors.New("usage: points <teamId> <points>")
		}
		teamID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return errors.New("teamId must be a number")
		}
		points, err := strconv.Atoi(fields[2])
		if err != nil {
			return errors.New("points must be a number")
		}
		return client.SetAnswerPoints(ctx, store.ViewedQuestion(), teamID, points)
	case "results":
		if len(fields) != 2 {
			return errors.New("usage: results <teamId>")
		}
		teamID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return errors.New("teamId must be a number")
		}
		return client.SendResults(ctx, teamID)
	default:
		return fmt.Errorf("unknown command %q, type help", fields[0])
	}
	return nil
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `commands:
  quiz start <id> [lang]    start a quiz, quiz stop ends it
  registration start|stop   open or close team registration
  question start|stop       start the viewed question, or stop the running one
  view <n> | next | prev    move the grading cursor
  correct <teamId>          grade the viewed answer as correct (1 point)
  wrong <teamId>            grade the viewed answer as wrong (0 points)
  points <teamId> <p>       set explicit points for the viewed answer
  results <teamId>          send final results to a team
  redraw | help | exit
`)
}
