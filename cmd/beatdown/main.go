package main

import (
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli"

	"beatdown/internal/metronome"
	"beatdown/internal/sched"
	"beatdown/internal/tui"
)

var (
	cfgPath  string
	minutes  int
	bpm      float64
	beats    int
	csvPath  string
	headless bool
)

var appFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the yaml config file",
		EnvVar:      "BEATDOWN_CONFIG",
		Destination: &cfgPath,
	},
	cli.IntFlag{
		Name:        "minutes, m",
		Usage:       "session duration in minutes (1-999)",
		Value:       5,
		Destination: &minutes,
	},
	cli.Float64Flag{
		Name:        "bpm, b",
		Usage:       "initial tempo in beats per minute",
		Value:       60,
		Destination: &bpm,
	},
	cli.IntFlag{
		Name:        "beats, n",
		Usage:       "override the derived total beat count",
		Destination: &beats,
	},
	cli.StringFlag{
		Name:        "csv",
		Usage:       "write beat telemetry to a csv file",
		Destination: &csvPath,
	},
	cli.BoolFlag{
		Name:        "headless",
		Usage:       "plain console output instead of the interactive display",
		Destination: &headless,
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "beatdown"
	app.Usage = "beat countdown with a drift-free scheduler"
	app.Flags = appFlags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "beatdown: %v\n", err)
		os.Exit(1)
	}
}

func run(_ *cli.Context) error {
	cfg := sched.Load(cfgPath)
	clock := sched.NewMonotonicClock()
	host := sched.NewTickHost()
	defer host.Shutdown()

	if headless {
		return runHeadless(cfg, clock, host)
	}

	s, err := sched.New(cfg, clock, host, nil)
	if err != nil {
		return err
	}
	if csvPath != "" {
		if err := s.EnableCSVLogging(csvPath); err != nil {
			return err
		}
	}
	s.Start(minutes, bpm, beats)

	p := tea.NewProgram(tui.NewModel(s), tea.WithAltScreen())
	_, err = p.Run()
	s.Close()
	return err
}

func runHeadless(cfg sched.Config, clock sched.Clock, host sched.Host) error {
	l := &consoleListener{
		click: metronome.NewClick(os.Stdout, 4),
		done:  make(chan struct{}),
	}
	s, err := sched.New(cfg, clock, host, l)
	if err != nil {
		return err
	}
	if csvPath != "" {
		if err := s.EnableCSVLogging(csvPath); err != nil {
			return err
		}
	}
	s.Start(minutes, bpm, beats)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	select {
	case <-l.done:
		fmt.Println("done")
	case <-sig:
	}
	s.Close()
	return nil
}

// consoleListener prints the countdown line by line for terminals without
// an interactive display.
type consoleListener struct {
	click *metronome.Click
	done  chan struct{}
}

func (l *consoleListener) BeatFired(index int, _, _ float64) {
	l.click.Play(index)
}

func (l *consoleListener) DisplayTick(int, float64, float64) {}

func (l *consoleListener) DurationTick(remainingSeconds int) {
	fmt.Printf("  %02d:%02d remaining\n", remainingSeconds/60, remainingSeconds%60)
}

func (l *consoleListener) Completed() {
	close(l.done)
}

func (l *consoleListener) Suppressed(active bool) {
	if active {
		fmt.Println("  silenced")
	} else {
		fmt.Println("  resumed")
	}
}
