package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"anotherworld/internal/mixer"
	"anotherworld/internal/resource"
	"anotherworld/internal/sfx"
	"anotherworld/internal/video"
	"anotherworld/internal/vm"
)

const refreshHz = 10

func main() {
	assetDir := flag.String("assets", "data", "Path to the original game's data directory")
	part := flag.Int("part", 2, "Logical part number to start from (1-10)")
	flag.Parse()

	if *part < 1 || *part > 10 {
		fmt.Fprintf(os.Stderr, "Error: part must be between 1 and 10\n")
		os.Exit(1)
	}

	mem := resource.New(*assetDir, nil)
	if err := mem.ReadMemList(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading memlist: %v\n", err)
		os.Exit(1)
	}

	vid := video.New(nil)
	mx := mixer.New(nil)
	sfxPlayer := sfx.New(mx, nil)
	m := vm.New(mem, vid, mx, sfxPlayer, vm.Options{Bypass: true}, nil)
	m.RequestPartSwitch(uint16(resource.PartIDFirst + (*part - 1)))

	h := newHeadlessHost()
	go func() {
		if err := m.Run(h); err != nil {
			fmt.Fprintf(os.Stderr, "VM error: %v\n", err)
		}
	}()

	a := app.New()
	w := a.NewWindow("Another World Inspector")
	w.Resize(fyne.NewSize(900, 700))

	varsPanel, updateVars := variableViewer(m)
	threadsPanel, updateThreads := threadViewer(m)
	arenaPanel, updateArena := arenaViewer(mem)

	tabs := container.NewAppTabs(
		container.NewTabItem("Variables", varsPanel),
		container.NewTabItem("Threads", threadsPanel),
		container.NewTabItem("Resource Arena", arenaPanel),
	)
	w.SetContent(tabs)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second / refreshHz)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			fyne.Do(func() {
				updateVars()
				updateThreads()
				updateArena()
			})
		}
	}()

	w.SetCloseIntercept(func() {
		close(stop)
		h.stop()
		w.Close()
	})

	w.ShowAndRun()
}

// variableViewer shows all 256 VM variables as a scrollable hex dump,
// grounded on the teacher's register_viewer.go text-dump panel.
func variableViewer(m *vm.VM) (*fyne.Container, func()) {
	text := widget.NewMultiLineEntry()
	text.Wrapping = fyne.TextWrapOff
	text.Disable()
	scroll := container.NewScroll(text)
	scroll.SetMinSize(fyne.NewSize(400, 500))

	update := func() {
		snap := m.Snapshot()
		out := fmt.Sprintf("=== VM Variables (part 0x%04x, blits %d) ===\n\n", snap.CurrentPart, snap.BlitCount)
		for i := 0; i < vm.NumVars; i += 8 {
			out += fmt.Sprintf("%02X: ", i)
			for j := 0; j < 8; j++ {
				out += fmt.Sprintf("%6d ", snap.Vars[i+j])
			}
			out += "\n"
		}
		text.SetText(out)
	}
	update()

	return container.NewVBox(widget.NewLabel("VM Variables"), scroll), update
}

// threadViewer lists every thread's program counter and pause state,
// grounded on the teacher's register_viewer.go layout.
func threadViewer(m *vm.VM) (*fyne.Container, func()) {
	text := widget.NewMultiLineEntry()
	text.Wrapping = fyne.TextWrapOff
	text.Disable()
	scroll := container.NewScroll(text)
	scroll.SetMinSize(fyne.NewSize(400, 500))

	update := func() {
		snap := m.Snapshot()
		out := "=== Threads ===\n\n"
		out += "id  pc      paused  requested\n"
		for i, th := range snap.Threads {
			if th.PC == vm.ThreadInactive {
				continue
			}
			out += fmt.Sprintf("%2d  0x%04X  %-6v  %v\n", i, th.PC, th.PausedCurrent, th.PausedRequested)
		}
		text.SetText(out)
	}
	update()

	return container.NewVBox(widget.NewLabel("Thread Table"), scroll), update
}

// arenaViewer shows occupancy of the resource manager's fixed arena: one
// line per loaded entry plus the script_cur_ptr/vid_bak_ptr totals,
// grounded on the teacher's memory_viewer.go hex-dump panel.
func arenaViewer(mem *resource.Manager) (*fyne.Container, func()) {
	text := widget.NewLabel("")
	text.Wrapping = fyne.TextWrapOff
	scroll := container.NewScroll(text)
	scroll.SetMinSize(fyne.NewSize(500, 500))

	update := func() {
		used := mem.ScriptCurPtr
		total := uint32(resource.ArenaSize)
		out := fmt.Sprintf("=== Resource Arena ===\n\nscript_cur_ptr: %d / %d bytes (%.1f%%)\n\n", used, total, 100*float64(used)/float64(total))
		out += "idx  state  type  bufptr    size\n"
		for i, e := range mem.Entries {
			if e.State == resource.StateNotNeeded {
				continue
			}
			out += fmt.Sprintf("%3d  %5d  %4d  0x%06X  %6d\n", i, e.State, e.Type, e.BufPtr, e.Size)
		}
		text.SetText(out)
	}
	update()

	return container.NewVBox(widget.NewLabel("Resource Arena"), scroll), update
}
