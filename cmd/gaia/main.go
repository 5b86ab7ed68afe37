// Command gaia answers a question with the GAIA agent, using the
// providers configured in a YAML file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/gaia-agent/agent"
	"github.com/effective-security/gaia-agent/llmfactory"
	"github.com/effective-security/gaia-agent/pkg/llms"
	"github.com/effective-security/gaia-agent/tools"
	"github.com/effective-security/gaia-agent/tools/download"
	"github.com/effective-security/gaia-agent/tools/imagery"
	"github.com/effective-security/gaia-agent/tools/tabular"
	"github.com/effective-security/gaia-agent/tools/webpage"
	"github.com/effective-security/gaia-agent/tools/websearch"
	"github.com/effective-security/gaia-agent/tools/wikipedia"
	"github.com/effective-security/gaia-agent/tools/youtube"
	"github.com/effective-security/xlog"
	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	maxRounds    int
	maxToolCalls int
	rawAnswer    bool
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "gaia [flags] [question]",
	Short: "Answer a question with the GAIA agent",
	Long: `gaia runs the question answering loop against the configured LLM
provider, letting the model use web search, Wikipedia, file and media
tools. The question is read from the arguments, or from stdin when no
arguments are given.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cfgFile, "cfg", "c", "llm.yaml", "path to the provider configuration")
	rootCmd.Flags().IntVar(&maxRounds, "max-rounds", agent.DefaultMaxRounds, "maximum LLM round trips per question")
	rootCmd.Flags().IntVar(&maxToolCalls, "max-tool-calls", agent.DefaultMaxToolCalls, "maximum tool executions per question")
	rootCmd.Flags().BoolVar(&rawAnswer, "raw", false, "skip the final answer formatting call")
	rootCmd.Flags().BoolVarP(&debug, "debug", "D", false, "enable debug logging")
}

func run(ctx context.Context, out io.Writer, args []string) error {
	if debug {
		xlog.SetFormatter(xlog.NewStringFormatter(os.Stderr))
		xlog.SetGlobalLogLevel(xlog.DEBUG)
	} else {
		xlog.SetGlobalLogLevel(xlog.ERROR)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "failed to read question from stdin")
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return errors.New("no question provided")
	}

	factory, err := llmfactory.Load(cfgFile)
	if err != nil {
		return errors.WithMessage(err, "failed to load configuration")
	}
	agentModel, err := factory.AgentModel("agent")
	if err != nil {
		return errors.WithMessage(err, "failed to create agent model")
	}
	formatterModel, err := factory.AgentModel("formatter")
	if err != nil {
		return errors.WithMessage(err, "failed to create formatter model")
	}

	registry, err := buildRegistry(agentModel)
	if err != nil {
		return errors.WithMessage(err, "failed to build tool registry")
	}

	a := agent.New(agentModel, registry,
		agent.WithMaxRounds(maxRounds),
		agent.WithMaxToolCalls(maxToolCalls),
		agent.WithFormatter(formatterModel),
		agent.WithSkipFormatting(rawAnswer),
	)
	answer, err := a.AnswerQuestion(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer)
	return nil
}

func buildRegistry(visionModel llms.Model) (*tools.Registry, error) {
	list := []tools.ITool{
		download.New(),
		webpage.New(),
		tabular.NewExcel(),
		tabular.NewCSV(),
		imagery.New(visionModel),
		websearch.New(),
		wikipedia.NewCheck(),
		wikipedia.NewGet(),
		youtube.New(),
	}
	// Tavily is optional, it needs an API key.
	if tavily, err := websearch.NewTavily(); err == nil {
		list = append(list, tavily)
	}
	return tools.NewRegistry(list...)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
