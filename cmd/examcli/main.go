// Command examcli takes a practice exam against a running API server from the
// terminal.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"practice_exam_backend/internal/config"
	"practice_exam_backend/internal/model"
	"practice_exam_backend/pkg/apiclient"
	"practice_exam_backend/pkg/logger"

	"go.uber.org/zap"
)

type options struct {
	examType string
	userID   string
	count    int
}

func main() {
	configDir := flag.String("config", "./configs", "Directory containing config.yaml")
	baseURL := flag.String("api", "", "API base URL (overrides client.api_base_url)")
	examType := flag.String("exam", "", "Exam type to practice, e.g. AZ-900")
	userID := flag.String("user", "", "User id (defaults to the anonymous user)")
	count := flag.Int("count", 0, "Number of questions (0 uses the server default)")
	debug := flag.Bool("debug", false, "Enable debug logging and detailed errors")
	flag.Parse()

	if *examType == "" {
		fmt.Fprintf(os.Stderr, "Error: exam type required\n")
		fmt.Fprintf(os.Stderr, "Usage: examcli -exam <type> [-user <id>] [-count <n>] [-api <url>]\n")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	clientCfg := cfg.Client
	if *baseURL != "" {
		clientCfg.APIBaseURL = *baseURL
	}
	if *debug {
		clientCfg.Debug = true
	}
	if err := clientCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewConsole(clientCfg.Debug)
	defer log.Sync()

	client, err := apiclient.New(apiclient.Config{
		BaseURL:       clientCfg.APIBaseURL,
		Timeout:       clientCfg.RequestTimeout(),
		RetryAttempts: clientCfg.RetryAttempts,
		Debug:         clientCfg.Debug,
	}, apiclient.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{examType: *examType, userID: *userID, count: *count}
	if err := runExam(ctx, client, opts, os.Stdin, os.Stdout); err != nil {
		msg, details := apiclient.ErrorMessage(err, clientCfg.Debug)
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		if details != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", details)
		}
		log.Debug("Exam aborted", zap.Error(err))
		os.Exit(1)
	}
}

// runExam walks one session: start, one prompt per question, complete, then
// a review with the answer keys.
func runExam(ctx context.Context, client *apiclient.Client, opts options, in io.Reader, out io.Writer) error {
	summary, err := client.StartExam(ctx, opts.examType, opts.userID, opts.count)
	if err != nil {
		return err
	}
	if len(summary.Questions) == 0 {
		fmt.Fprintf(out, "No questions available for %s.\n", summary.ExamType)
		return nil
	}

	questions, err := client.SessionQuestions(ctx, summary.SessionID, summary.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s practice exam, %d questions (session %s)\n",
		summary.ExamType, len(questions), summary.SessionID)

	scanner := bufio.NewScanner(in)
	chosen := make([]int, len(questions))
	for i, q := range questions {
		chosen[i] = -1
		fmt.Fprintf(out, "\n%d. %s\n", i+1, q.QuestionText)
		for j, opt := range q.Options {
			fmt.Fprintf(out, "   %s) %s\n", optionLabel(j), opt)
		}

		for {
			fmt.Fprint(out, "Answer (blank to skip): ")
			if !scanner.Scan() {
				break
			}
			answer, ok := parseAnswer(scanner.Text(), len(q.Options))
			if !ok {
				fmt.Fprintf(out, "Enter a letter between A and %s or a number between 1 and %d.\n",
					optionLabel(len(q.Options)-1), len(q.Options))
				continue
			}
			if answer >= 0 {
				if err := client.SubmitAnswer(ctx, summary.SessionID, summary.UserID, i, answer); err != nil {
					return err
				}
				chosen[i] = answer
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read answers: %w", err)
	}

	result, err := client.CompleteExam(ctx, summary.SessionID, summary.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nScore: %d%% (%d of %d correct)\n", result.Score, result.CorrectAnswers, result.TotalQuestions)

	// answer keys are only served once the session is completed
	reviewed, err := client.SessionQuestions(ctx, summary.SessionID, summary.UserID)
	if err != nil {
		return err
	}
	printReview(out, reviewed, chosen)
	return nil
}

func printReview(out io.Writer, questions []model.Question, chosen []int) {
	for i, q := range questions {
		if i >= len(chosen) {
			break
		}
		mark := "wrong"
		switch {
		case chosen[i] < 0:
			mark = "skipped"
		case chosen[i] == q.CorrectAnswer:
			mark = "correct"
		}
		fmt.Fprintf(out, "\n%d. %s [%s]\n", i+1, q.QuestionText, mark)
		if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			fmt.Fprintf(out, "   Answer: %s) %s\n", optionLabel(q.CorrectAnswer), q.Options[q.CorrectAnswer])
		}
		if q.Explanation != "" {
			fmt.Fprintf(out, "   %s\n", q.Explanation)
		}
	}
}

func optionLabel(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

// parseAnswer accepts a letter (A, b, ...) or a 1-based number. A blank line
// is a skip and yields -1.
func parseAnswer(s string, optionCount int) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return -1, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > optionCount {
			return 0, false
		}
		return n - 1, true
	}
	if len(s) == 1 {
		idx := int(strings.ToUpper(s)[0]) - 'A'
		if idx >= 0 && idx < optionCount {
			return idx, true
		}
	}
	return 0, false
}
