// Package monitoring turns a running benchmark into a small HTTP server so
// that its progress, registers and log can be watched from outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/register"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// An Agent is anything the monitor can list and dump.
type Agent interface {
	Name() string
}

// A StatusReporter is an agent that can describe itself as a plain value,
// which is dumped instead of the agent itself.
type StatusReporter interface {
	Status() any
}

// A StateTeller reports the current lifecycle state of a run.
type StateTeller interface {
	StateName() string
}

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation.
type Monitor struct {
	portNumber int

	lock      sync.Mutex
	registers *register.Array
	log       *eventlog.Log
	state     StateTeller
	agents    []Agent

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
	url    string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterRegisters sets the register array to expose.
func (m *Monitor) RegisterRegisters(a *register.Array) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.registers = a
}

// RegisterLog sets the event log to expose.
func (m *Monitor) RegisterLog(l *eventlog.Log) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.log = l
}

// RegisterStateTeller sets where the run state comes from.
func (m *Monitor) RegisterStateTeller(s StateTeller) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.state = s
}

// RegisterAgent adds an agent to be listed.
func (m *Monitor) RegisterAgent(a Agent) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.agents = append(m.agents, a)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// ProgressBars returns the bars currently shown.
func (m *Monitor) ProgressBars() []*ProgressBar {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]*ProgressBar, len(m.progressBars))
	copy(bars, m.progressBars)

	return bars
}

// URL returns the address of the running server, or "" before StartServer.
func (m *Monitor) URL() string {
	return m.url
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/state", m.reportState)
	r.HandleFunc("/api/registers", m.listRegisters)
	r.HandleFunc("/api/log", m.reportLog)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/agents", m.listAgents)
	r.HandleFunc("/api/agent/{name}", m.agentDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return errors.Wrap(err, "starting monitor")
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("monitor stopped: %v", err)
		}
	}()

	return nil
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

// OpenInBrowser opens the monitor in the default web browser.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return errors.New("monitor is not running")
	}

	return browser.OpenURL(m.url + "/api/progress")
}

func (m *Monitor) reportState(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	state := m.state
	m.lock.Unlock()

	name := "Unknown"
	if state != nil {
		name = state.StateName()
	}

	writeJSON(w, map[string]string{"state": name})
}

func (m *Monitor) listRegisters(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	registers := m.registers
	m.lock.Unlock()

	if registers == nil {
		http.Error(w, "no registers", http.StatusNotFound)
		return
	}

	writeJSON(w, []int(registers.ReadAll()))
}

type logRsp struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Dropped  uint64 `json:"dropped"`
	Policy   string `json:"policy"`
}

func (m *Monitor) reportLog(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	l := m.log
	m.lock.Unlock()

	if l == nil {
		http.Error(w, "no log", http.StatusNotFound)
		return
	}

	writeJSON(w, logRsp{
		Size:     l.Len(),
		Capacity: l.Capacity(),
		Dropped:  l.Dropped(),
		Policy:   l.Policy().String(),
	})
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, views)
}

func (m *Monitor) listAgents(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.agents))
	for _, a := range m.agents {
		names = append(names, a.Name())
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) agentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	agent := m.findAgent(name)
	if agent == nil {
		http.Error(w, "Agent not found", http.StatusNotFound)
		return
	}

	var root any = agent
	if r, ok := agent.(StatusReporter); ok {
		root = r.Status()
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findAgent(name string) Agent {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, a := range m.agents {
		if a.Name() == name {
			return a
		}
	}

	return nil
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

// maxProfileDuration bounds how long a single request may keep the CPU
// profiler running.
const maxProfileDuration = 30 * time.Second

func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if s := r.URL.Query().Get("seconds"); s != "" {
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil || secs <= 0 {
			http.Error(w, "invalid seconds", http.StatusBadRequest)
			return
		}

		duration = time.Duration(secs * float64(time.Second))
		if duration > maxProfileDuration {
			http.Error(w,
				fmt.Sprintf("profiles are limited to %s", maxProfileDuration),
				http.StatusBadRequest)
			return
		}
	}

	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
