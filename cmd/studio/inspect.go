package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/heimdex/heimdex-studio/internal/automation"
	"github.com/heimdex/heimdex-studio/internal/editor"
	"github.com/heimdex/heimdex-studio/internal/export"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

type inspectOptions struct {
	shotsPath    string
	commandsPath string
	at           float64
	edlDir       string
	name         string
}

// newInspectCommand seeds an arrangement offline, optionally replays a list
// of editing commands against it and prints the result.
func newInspectCommand() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Seed an arrangement, apply commands and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arr, err := buildArrangement(opts)
			if err != nil {
				return err
			}
			printArrangement(cmd.OutOrStdout(), arr, opts.at)

			if opts.edlDir != "" {
				path, count, err := export.WriteEDL(arr, opts.name, export.EDLRequest{OutputDir: opts.edlDir})
				if err != nil {
					return fmt.Errorf("write edl: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %d events to %s\n", count, path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.shotsPath, "shots", "", "JSON file with the shot listing (default: demo shots)")
	cmd.Flags().StringVar(&opts.commandsPath, "commands", "", "JSON file with an array of editing commands")
	cmd.Flags().Float64Var(&opts.at, "at", 0, "Time in seconds for the mixer table")
	cmd.Flags().StringVar(&opts.edlDir, "edl", "", "Also write an EDL into this directory")
	cmd.Flags().StringVar(&opts.name, "name", "Untitled", "Project name used for the EDL title")
	return cmd
}

func demoShots() []timeline.Shot {
	return []timeline.Shot{
		{ID: "shot-1", Name: "Opening", Duration: 4},
		{ID: "shot-2", Name: "Interview", Duration: 7.5},
		{ID: "shot-3", Name: "B-roll", Duration: 3},
		{ID: "shot-4", Name: "Closing"},
	}
}

func buildArrangement(opts inspectOptions) (timeline.Arrangement, error) {
	shots := demoShots()
	if opts.shotsPath != "" {
		data, err := os.ReadFile(opts.shotsPath)
		if err != nil {
			return timeline.Arrangement{}, fmt.Errorf("read shots: %w", err)
		}
		shots = nil
		if err := json.Unmarshal(data, &shots); err != nil {
			return timeline.Arrangement{}, fmt.Errorf("parse shots: %w", err)
		}
	}
	arr := timeline.Seed(shots)

	if opts.commandsPath == "" {
		return arr, nil
	}
	data, err := os.ReadFile(opts.commandsPath)
	if err != nil {
		return timeline.Arrangement{}, fmt.Errorf("read commands: %w", err)
	}
	cmds, err := decodeCommands(data)
	if err != nil {
		return timeline.Arrangement{}, err
	}
	return editor.ApplyAll(arr, cmds)
}

func decodeCommands(data []byte) ([]editor.Command, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}
	cmds := make([]editor.Command, 0, len(raw))
	for i, r := range raw {
		cmd, err := editor.DecodeCommand(r)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func printArrangement(w io.Writer, arr timeline.Arrangement, at float64) {
	title := cases.Title(language.Und)

	fmt.Fprintf(w, "Duration: %ss\n\n", formatSeconds(arr.TotalDuration()))

	trackRows := make([][]string, 0, len(arr.Tracks))
	var clipRows [][]string
	for _, t := range arr.Tracks {
		trackRows = append(trackRows, []string{
			t.ID,
			t.Name,
			title.String(string(t.Kind)),
			strconv.Itoa(len(t.Clips)),
			formatSeconds(t.Volume),
			trackFlags(t),
		})
		for _, c := range t.Clips {
			transition := "-"
			if c.Transition != nil {
				transition = fmt.Sprintf("%s %ss", title.String(string(c.Transition.Type)), formatSeconds(c.Transition.Duration))
			}
			clipRows = append(clipRows, []string{
				c.ID,
				t.ID,
				formatSeconds(c.StartTime),
				formatSeconds(c.End()),
				transition,
			})
		}
	}

	fmt.Fprintln(w, renderTable(
		[]string{"Track", "Name", "Kind", "Clips", "Volume", "Flags"},
		trackRows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	if len(clipRows) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderTable(
			[]string{"Clip", "Track", "Start", "End", "Transition"},
			clipRows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		))
	}

	mixRows := make([][]string, 0, len(arr.Tracks))
	for _, t := range arr.Tracks {
		if t.Kind != timeline.TrackAudio {
			continue
		}
		mixRows = append(mixRows, []string{
			t.ID,
			formatSeconds(automation.VolumeAt(t, at)),
			formatSeconds(automation.DuckingMultiplier(arr, t, at)),
			formatSeconds(automation.EffectiveVolumeAt(arr, t, at)),
		})
	}
	if len(mixRows) > 0 {
		fmt.Fprintf(w, "\nMix at %ss\n", formatSeconds(at))
		fmt.Fprintln(w, renderTable(
			[]string{"Track", "Envelope", "Ducking", "Effective"},
			mixRows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}
}

func trackFlags(t timeline.Track) string {
	var flags []string
	if t.Muted {
		flags = append(flags, "muted")
	}
	if t.Solo {
		flags = append(flags, "solo")
	}
	if t.Locked {
		flags = append(flags, "locked")
	}
	if !t.Visible {
		flags = append(flags, "hidden")
	}
	if t.Ducking != nil && t.Ducking.Enabled {
		flags = append(flags, "ducks under "+t.Ducking.TargetTrackID)
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ", ")
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
