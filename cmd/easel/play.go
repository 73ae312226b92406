package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/canvas"
	"github.com/aretw0/easel/pkg/core"
)

var playDelay time.Duration

// script is a recorded editing session, one gesture event per step:
//
//	steps:
//	  - tool: rectangle
//	  - down: {x: 50, y: 50}
//	  - up: {x: 50, y: 50}
//	  - tool: select
//	  - down: {x: 60, y: 60}
//	  - move: {x: 80, y: 70}
//	  - up: {x: 80, y: 70}
//	  - undo: true
type script struct {
	Steps []step `yaml:"steps"`
}

type step struct {
	Tool   string      `yaml:"tool,omitempty"`
	Color  string      `yaml:"color,omitempty"`
	Down   *core.Point `yaml:"down,omitempty"`
	Move   *core.Point `yaml:"move,omitempty"`
	Up     *core.Point `yaml:"up,omitempty"`
	Text   *textStep   `yaml:"text,omitempty"`
	Undo   bool        `yaml:"undo,omitempty"`
	Redo   bool        `yaml:"redo,omitempty"`
	Cancel bool        `yaml:"cancel,omitempty"`
	Wait   string      `yaml:"wait,omitempty"`
}

type textStep struct {
	ID      string `yaml:"id"`
	Content string `yaml:"content"`
}

func parseScript(data []byte) (script, error) {
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return script{}, fmt.Errorf("%w: invalid script: %w", core.ErrValidation, err)
	}
	return s, nil
}

// run feeds every step to ed in order, stopping at the first error.
func (s script) run(ed *canvas.Editor) error {
	for i, st := range s.Steps {
		if err := st.apply(ed); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st step) apply(ed *canvas.Editor) error {
	switch {
	case st.Tool != "":
		t, err := canvas.ParseTool(st.Tool)
		if err != nil {
			return err
		}
		return ed.SetTool(t)
	case st.Color != "":
		return ed.SetColor(st.Color)
	case st.Down != nil:
		return ed.PointerDown(*st.Down)
	case st.Move != nil:
		return ed.PointerMove(*st.Move)
	case st.Up != nil:
		return ed.PointerUp(*st.Up)
	case st.Text != nil:
		return ed.EditText(st.Text.ID, st.Text.Content)
	case st.Undo:
		ed.Undo()
	case st.Redo:
		ed.Redo()
	case st.Cancel:
		ed.CancelGesture()
	case st.Wait != "":
		d, err := time.ParseDuration(st.Wait)
		if err != nil {
			return fmt.Errorf("%w: wait: %w", core.ErrValidation, err)
		}
		time.Sleep(d)
	default:
		return fmt.Errorf("%w: empty step", core.ErrValidation)
	}
	return nil
}

var playCmd = &cobra.Command{
	Use:   "play [id] [script.yaml]",
	Short: "Replay a gesture script on a whiteboard",
	Long: `Play opens a whiteboard, feeds the pointer and keyboard events of a YAML
script through the editor and closes the session, flushing the pending autosave.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[1])
		if err != nil {
			fatal("Error reading script", err)
		}
		s, err := parseScript(data)
		if err != nil {
			fatal("Error parsing script", err)
		}

		svc := openService()
		defer easel.Close(svc)

		ctx := easel.WithChangeReason(context.Background(),
			easel.FormatChangeReason(easel.CommitTypeFeat, "board", "play "+args[1]+" on "+args[0], ""))

		b, err := easel.Open(ctx, svc, args[0], append(baseOptions(), easel.WithAutosaveDelay(playDelay))...)
		if err != nil {
			fatal("Error opening whiteboard", err)
		}

		runErr := s.run(b.Editor())
		if err := b.Close(ctx, true); err != nil {
			fatal("Error saving whiteboard", err)
		}
		if runErr != nil {
			fatal("Script stopped", runErr)
		}

		h := b.Editor().History()
		fmt.Printf("%d elements, history %d/%d\n", b.Snapshot().Len(), h.Cursor(), h.Len())
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().DurationVar(&playDelay, "autosave", 2*time.Second, "Autosave debounce window")
}
