package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/composer"
	"github.com/quinta-thw/librarymanager-ist4070/internal/config"
	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
	"github.com/quinta-thw/librarymanager-ist4070/internal/ingest"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot interactively",
	Long: `Talk to the bot interactively.

Type /quit to leave, /status for the session mode, /clear to drop the
transcript.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), client, role, name, os.Stdin, os.Stdout)
	},
}

func init() {
	chatCmd.Flags().String("role", "patron", "patron or staff")
	chatCmd.Flags().String("name", "", "name the bot addresses you by")
}

func runChat(ctx context.Context, client *apiClient, role, name string, in io.Reader, out io.Writer) error {
	st, err := client.createSession(ctx, role, name)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.closeSession(context.WithoutCancel(ctx), st.ID); err != nil {
			printWarning("closing session: %v", err)
		}
	}()

	fmt.Fprintf(out, "%s Hello! Ask me about our books. (%s mode)\n", styleBold.paint("Library Bot:"), st.Mode)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, styleStep.paint("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return nil
		case "/status":
			resp, err := client.get(ctx, "/v1/sessions/"+st.ID)
			if err != nil {
				return err
			}
			var cur dialogue.Status
			if err := decodeJSON(resp, &cur); err != nil {
				return err
			}
			fmt.Fprintf(out, "mode=%s turns=%d model=%s\n%s\n", cur.Mode, cur.Turns, cur.Model, cur.Summary)
			continue
		case "/clear":
			resp, err := client.delete(ctx, "/v1/sessions/"+st.ID+"/transcript")
			if err != nil {
				return err
			}
			if err := expectStatus(resp, http.StatusNoContent); err != nil {
				return err
			}
			fmt.Fprintln(out, "transcript cleared")
			continue
		}

		reply, err := client.send(ctx, st.ID, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", styleBold.paint("Library Bot:"), reply.Text)
	}
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		reply, err := ask(cmd.Context(), client, role, name, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().String("role", "patron", "patron or staff")
	askCmd.Flags().String("name", "", "name the bot addresses you by")
}

func ask(ctx context.Context, client *apiClient, role, name, question string) (dialogue.Reply, error) {
	st, err := client.createSession(ctx, role, name)
	if err != nil {
		return dialogue.Reply{}, err
	}
	defer client.closeSession(context.WithoutCancel(ctx), st.ID)
	return client.send(ctx, st.ID, question)
}

// --- ai ---

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Manage the external AI service for all sessions",
}

var aiSetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Configure the API key (and optionally the model) for every session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model, _ := cmd.Flags().GetString("model")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.put(cmd.Context(), "/v1/ai", map[string]string{"api_key": args[0], "model": model})
		if err != nil {
			return err
		}
		var gs dialogue.GlobalStatus
		if err := decodeJSON(resp, &gs); err != nil {
			return err
		}
		printSuccess("AI enabled for %d live sessions", gs.Sessions)
		return nil
	},
}

var aiClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Return every session to local mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/v1/ai")
		if err != nil {
			return err
		}
		if err := expectStatus(resp, http.StatusNoContent); err != nil {
			return err
		}
		printSuccess("AI disabled, sessions answer locally")
		return nil
	},
}

func init() {
	aiSetCmd.Flags().String("model", "", "model name (default from llm.model)")
	aiCmd.AddCommand(aiSetCmd, aiClearCmd)
}

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or import the book catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every book the bot can see",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/catalog")
		if err != nil {
			return err
		}
		var body struct {
			Total int             `json:"total"`
			Books []catalog.Entry `json:"books"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			return err
		}
		if body.Total == 0 {
			fmt.Println("The catalog is empty.")
			return nil
		}
		for _, b := range body.Books {
			fmt.Println(composer.FormatEntry(b))
		}
		printStatus("Total", "%d", body.Total)
		return nil
	},
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Queue books from YAML or JSON files for import",
	Long: `Queue books from YAML or JSON files for import.

Files are read in parallel and sent as one import job. With --replace the
catalog is swapped for the imported books instead of merged.

Examples:
  librarybot catalog import books.yaml
  librarybot catalog import --replace fiction.json poetry.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		replace, _ := cmd.Flags().GetBool("replace")

		books, err := loadBookFiles(cmd.Context(), args)
		if err != nil {
			return err
		}
		printStep("Read %d books from %d files", len(books), len(args))

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/v1/catalog/imports", ingest.Payload{Books: books, Replace: replace})
		if err != nil {
			return err
		}
		var result struct {
			JobID string `json:"job_id"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Queued import %s", result.JobID)
		return nil
	},
}

var catalogImportStatusCmd = &cobra.Command{
	Use:   "import-status <job-id>",
	Short: "Show the state of a queued import",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/v1/catalog/imports/"+args[0])
		if err != nil {
			return err
		}
		var job struct {
			Status    string `json:"status"`
			Done      bool   `json:"done"`
			Attempts  int    `json:"attempts"`
			LastError string `json:"last_error"`
		}
		if err := decodeJSON(resp, &job); err != nil {
			return err
		}
		printStatus("Status", "%s", job.Status)
		printStatus("Finished", "%t", job.Done)
		printStatus("Attempts", "%d", job.Attempts)
		if job.LastError != "" {
			printStatus("Last error", "%s", job.LastError)
		}
		return nil
	},
}

// loadBookFiles parses paths concurrently and concatenates the results in
// argument order.
func loadBookFiles(ctx context.Context, paths []string) ([]catalog.Entry, error) {
	results := make([][]catalog.Entry, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			books, err := catalog.LoadFile(path)
			if err != nil {
				return err
			}
			results[i] = books
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []catalog.Entry
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func init() {
	catalogImportCmd.Flags().Bool("replace", false, "replace the catalog instead of merging")
	catalogCmd.AddCommand(catalogListCmd, catalogImportCmd, catalogImportStatusCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", styleBold.paint(k.Key), k.Value, styleStep.paint("("+k.EnvVar+")"))
		}
		if err := cfg.Validate(); err != nil {
			printWarning("%v", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored value so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Store a secret in the platform secret store (value read from stdin)",
	Long: fmt.Sprintf(`Store a secret in the platform secret store.

The value is read from the first line of stdin so it never appears in the
shell history. Secret keys: %s`, strings.Join(config.SecretKeys(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := readSecret(cmd.InOrStdin())
		if err != nil {
			return err
		}
		if err := config.SetSecret(args[0], value); err != nil {
			return err
		}
		printSuccess("Stored %s", args[0])
		return nil
	},
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("secret value is empty")
	}
	return value, nil
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configUnsetCmd, configSetSecretCmd)
}
