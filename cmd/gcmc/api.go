package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"

	"github.com/mastercactapus/gcmc/canon"
	"github.com/mastercactapus/gcmc/coord"
	"github.com/mastercactapus/gcmc/gcode"
	"github.com/mastercactapus/gcmc/meshlevel"
)

type api struct {
	http.Handler
	c       *Controller
	dataDir string
	sse     *sse.Server
	hub     *wsHub
}

func newAPI(c *Controller, dir string) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		c:       c,
		dataDir: dir,
		hub:     newWSHub(c),
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
	}

	c.Notify = func(sr map[string]interface{}) {
		data, err := json.Marshal(sr)
		if err != nil {
			log.Printf("ERROR: marshal json: %+v", err)
			return
		}
		a.sse.SendMessage("/events/state", sse.SimpleMessage(string(data)))
		a.hub.broadcast(data)
	}

	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/data/").Handler(http.StripPrefix("/data", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case "GET":
			fs.ServeHTTP(w, req)
		case "PUT":
			a.putFile(w, req)
		case "DELETE":
			a.deleteFile(w, req)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	r.HandleFunc("/api/status", a.status).Methods("GET")
	r.HandleFunc("/api/run", a.run).Methods("POST")
	r.HandleFunc("/api/probe", a.probe).Methods("POST")
	r.HandleFunc("/api/jog", a.jog).Methods("POST")
	r.HandleFunc("/api/flush", a.flush).Methods("POST")
	r.HandleFunc("/api/clear", a.clear).Methods("POST")
	r.HandleFunc("/api/config/{token}", a.getConfig).Methods("GET")
	r.HandleFunc("/api/config/{token}", a.setConfig).Methods("PUT")

	r.PathPrefix("/events/").Handler(a.sse)
	r.HandleFunc("/ws", a.hub.serve)

	return a
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := base
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

func (a *api) status(w http.ResponseWriter, req *http.Request) {
	err := json.NewEncoder(w).Encode(a.c.Status())
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) run(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return
	}

	if req.FormValue("level") == "1" {
		err = a.runLeveled(string(data), req.FormValue("granularity"))
	} else {
		err = a.c.Submit(string(data))
	}
	if err != nil {
		log.Printf("ERROR: run: %+v", err)
		http.Error(w, err.Error(), 500)
		return
	}
}

// runLeveled pushes a program through the surface leveler backed by
// the last probed grid.
func (a *api) runLeveled(program, granularity string) error {
	gran := 1.0
	if granularity != "" {
		v, err := strconv.ParseFloat(granularity, 64)
		if err != nil {
			return err
		}
		gran = v
	}

	ok, name := safePath(a.dataDir, "grid.json")
	if !ok {
		return fmt.Errorf("bad data dir")
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("no probed grid, POST /api/probe with grid=1 first: %w", err)
	}
	defer f.Close()

	var grid struct {
		Points []coord.Point `json:"points"`
	}
	if err := json.NewDecoder(f).Decode(&grid); err != nil {
		return err
	}
	mesh, err := meshlevel.NewMesh(grid.Points)
	if err != nil {
		return err
	}

	blocks, err := gcode.Parse(program)
	if err != nil {
		return err
	}

	var start coord.Point
	a.c.exec(func() error {
		start = coord.Point{
			X: a.c.m.WorkPosition(coord.AxisX),
			Y: a.c.m.WorkPosition(coord.AxisY),
			Z: a.c.m.WorkPosition(coord.AxisZ),
		}
		return nil
	})
	return a.c.SubmitBlocks(meshlevel.New(meshlevel.Config{
		ZOffsetter:  mesh,
		Granularity: gran,
		Start:       start,
		Reader:      &gcode.BlocksReader{Blocks: blocks},
	}))
}

func (a *api) flush(w http.ResponseWriter, req *http.Request) {
	a.c.Control('%')
}

func (a *api) clear(w http.ResponseWriter, req *http.Request) {
	err := a.c.exec(func() error {
		a.c.m.ClearAlarm()
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func (a *api) jog(w http.ResponseWriter, req *http.Request) {
	var target coord.Vector
	var fl coord.Flags
	var err error

	for i := 0; i < coord.NumAxes; i++ {
		name := coord.Axis(i).String()
		v := req.FormValue(name)
		if v == "" {
			continue
		}
		target[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fl[i] = true
	}

	err = a.c.exec(func() error {
		return a.c.m.Jog(target, fl)
	})
	if err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func (a *api) getConfig(w http.ResponseWriter, req *http.Request) {
	token := mux.Vars(req)["token"]
	var val interface{}
	err := a.c.exec(func() (err error) {
		val, err = a.c.m.Report().Get(token)
		return err
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{token: val})
}

func (a *api) setConfig(w http.ResponseWriter, req *http.Request) {
	token := mux.Vars(req)["token"]
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = a.c.exec(func() error {
		return a.c.m.Report().Set(token, val)
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

// probe runs a single straight probe, or a full grid when grid=1;
// grid results are triangulated into a surface mesh and written to
// the data directory.
func (a *api) probe(w http.ResponseWriter, req *http.Request) {
	var err error
	parse := func(param string) (val float64) {
		if err != nil {
			return 0
		}
		s := req.FormValue(param)
		if s == "" {
			return 0
		}
		val, err = strconv.ParseFloat(s, 64)
		return val
	}

	feedRate := parse("feedRate")
	maxTravel := parse("maxZTravel")

	grid := req.FormValue("grid") == "1"
	var xDist, yDist, granularity float64
	if grid {
		xDist = parse("xDist")
		yDist = parse("yDist")
		granularity = parse("granularity")
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if feedRate <= 0 || maxTravel <= 0 {
		http.Error(w, "feedRate and maxZTravel are required", http.StatusBadRequest)
		return
	}

	if !a.c.Idle() {
		http.Error(w, "machine not idle", http.StatusConflict)
		return
	}

	var res interface{}
	if grid {
		res, err = a.probeGrid(feedRate, maxTravel, xDist, yDist, granularity)
	} else {
		res, err = a.probeZ(feedRate, maxTravel)
	}
	if err != nil {
		log.Printf("ERROR: probe grid=%t: %+v", grid, err)
		http.Error(w, err.Error(), 500)
		return
	}

	out := io.Writer(w)
	if grid {
		ok, name := safePath(a.dataDir, "grid.json")
		if ok {
			os.MkdirAll(filepath.Dir(name), 0755)
			f, err := os.Create(name)
			if err != nil {
				log.Printf("ERROR: create '%s': %+v", name, err)
			} else {
				defer f.Close()
				out = io.MultiWriter(w, f)
			}
		}
	}
	err = json.NewEncoder(out).Encode(res)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

// probeZ performs a straight z-probe from the current location and
// returns to the starting height.
func (a *api) probeZ(feedRate, maxTravel float64) (*canon.ProbeResult, error) {
	var start float64
	a.c.exec(func() error {
		start = a.c.m.AbsolutePosition(coord.AxisZ)
		a.c.m.ProbeHistory = nil
		return nil
	})

	prog := fmt.Sprintf("G91 G38.2 Z-%.3f F%.1f\nG90 G53 G0 Z%.3f\n", maxTravel, feedRate, start)
	if err := a.c.Submit(prog); err != nil {
		return nil, err
	}
	if !a.c.WaitIdle(5 * time.Minute) {
		return nil, fmt.Errorf("probe timed out")
	}

	var result *canon.ProbeResult
	a.c.exec(func() error {
		if len(a.c.m.ProbeHistory) > 0 {
			p := a.c.m.ProbeHistory[0]
			result = &p
		}
		return nil
	})
	if result == nil {
		return nil, fmt.Errorf("no probe data returned")
	}
	return result, nil
}

// probeGrid probes a regular grid, corners included, over an x/y
// rectangle from the current position, then triangulates the
// touched points.
func (a *api) probeGrid(feedRate, maxTravel, xDist, yDist, granularity float64) (interface{}, error) {
	if granularity <= 0 {
		granularity = 25
	}
	var startX, startY, startZ float64
	a.c.exec(func() error {
		startX = a.c.m.AbsolutePosition(coord.AxisX)
		startY = a.c.m.AbsolutePosition(coord.AxisY)
		startZ = a.c.m.AbsolutePosition(coord.AxisZ)
		a.c.m.ProbeHistory = nil
		return nil
	})

	var sb strings.Builder
	nx := int(xDist/granularity) + 1
	ny := int(yDist/granularity) + 1
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			x := startX + float64(ix)*xDist/float64(nx-1)
			y := startY + float64(iy)*yDist/float64(ny-1)
			if nx == 1 {
				x = startX
			}
			if ny == 1 {
				y = startY
			}
			fmt.Fprintf(&sb, "G90 G53 G0 Z%.3f\n", startZ)
			fmt.Fprintf(&sb, "G53 G0 X%.3f Y%.3f\n", x, y)
			fmt.Fprintf(&sb, "G91 G38.2 Z-%.3f F%.1f\nG90\n", maxTravel, feedRate)
		}
	}
	fmt.Fprintf(&sb, "G90 G53 G0 Z%.3f\n", startZ)
	fmt.Fprintf(&sb, "G53 G0 X%.3f Y%.3f\n", startX, startY)

	if err := a.c.Submit(sb.String()); err != nil {
		return nil, err
	}
	if !a.c.WaitIdle(30 * time.Minute) {
		return nil, fmt.Errorf("probe grid timed out")
	}

	var probes []canon.ProbeResult
	a.c.exec(func() error {
		probes = append(probes, a.c.m.ProbeHistory...)
		return nil
	})

	points := make([]coord.Point, 0, len(probes))
	for _, p := range probes {
		if !p.Triggered {
			continue
		}
		points = append(points, coord.PointFrom(p.Position))
	}
	if len(points) < 3 {
		return nil, fmt.Errorf("not enough probe contacts for a mesh: %d", len(points))
	}
	if _, err := meshlevel.NewMesh(points); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"points": points,
	}, nil
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		log.Printf("ERROR: write '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if err != nil {
		log.Printf("ERROR: delete '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}
