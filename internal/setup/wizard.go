package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/gabe/consultant/internal/config"
)

// Wizard handles interactive first-run setup
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a setup wizard reading answers from in
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run asks for the backend endpoints and writes the config to configPath
func (w *Wizard) Run(configPath string) (*config.Config, error) {
	fmt.Fprintln(w.out, "Welcome to consultant - AI-Consultant terminal client")
	fmt.Fprintln(w.out, "=====================================================")
	fmt.Fprintln(w.out)

	cfg := config.DefaultConfig()

	adminURL, err := w.promptURL("Admin API URL?", cfg.API.AdminURL)
	if err != nil {
		return nil, err
	}
	agentURL, err := w.promptURL("Agent API URL?", cfg.API.AgentURL)
	if err != nil {
		return nil, err
	}
	credentials, err := w.prompt("Where should credentials be stored?", cfg.Auth.CredentialsFile)
	if err != nil {
		return nil, err
	}

	cfg.API.AdminURL = adminURL
	cfg.API.AgentURL = agentURL
	cfg.Auth.CredentialsFile = credentials

	if err := config.Save(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Setup complete!")
	fmt.Fprintf(w.out, "  Config:    %s\n", configPath)
	fmt.Fprintf(w.out, "  Admin API: %s\n", adminURL)
	fmt.Fprintf(w.out, "  Agent API: %s\n", agentURL)
	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Next steps:")
	fmt.Fprintln(w.out, "  1. Save a token:       consultant login --token <token>")
	fmt.Fprintln(w.out, "  2. Describe a problem: consultant problems create \"...\"")
	fmt.Fprintln(w.out, "  3. Start the hearing:  consultant chat <problem-id>")

	return cfg, nil
}

func (w *Wizard) promptURL(question, defaultVal string) (string, error) {
	for {
		answer, err := w.prompt(question, defaultVal)
		if err != nil {
			return "", err
		}
		u, err := url.Parse(answer)
		if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return strings.TrimRight(answer, "/"), nil
		}
		fmt.Fprintf(w.out, "  %q is not an http(s) URL\n", answer)
	}
}

func (w *Wizard) prompt(question, defaultVal string) (string, error) {
	fmt.Fprintf(w.out, "%s [%s]: ", question, defaultVal)
	input, err := w.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal, nil
	}
	return input, nil
}
