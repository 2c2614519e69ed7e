package report

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itohio/dietemp/pkg/calib"
	"github.com/itohio/dietemp/pkg/monitor"
	"github.com/itohio/dietemp/pkg/sample"
)

var _ monitor.Sink = (*Latest)(nil)

// Latest keeps the most recent reading for readers on other goroutines.
type Latest struct {
	mu      sync.RWMutex
	reading sample.Reading
	ok      bool
}

func (l *Latest) Report(r sample.Reading) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reading = r
	l.ok = true
}

// Get returns the latest reading and whether there is one.
func (l *Latest) Get() (sample.Reading, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reading, l.ok
}

// Server exposes the latest reading over HTTP.
type Server struct {
	addr   string
	latest *Latest
	cal    *calib.Calibration
	engine *gin.Engine
}

// NewServer creates a status server. cal may be nil.
func NewServer(addr string, latest *Latest, cal *calib.Calibration) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{addr: addr, latest: latest, cal: cal, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/reading", s.handleReading)
	s.engine.GET("/calibration", s.handleCalibration)
}

func (s *Server) handleReading(c *gin.Context) {
	r, ok := s.latest.Get()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no reading yet"})
		return
	}
	c.JSON(http.StatusOK, NewPayload(r))
}

func (s *Server) handleCalibration(c *gin.Context) {
	if s.cal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "calibration not available"})
		return
	}

	consts := s.cal.Constants()
	model := s.cal.Model()
	c.JSON(http.StatusOK, gin.H{
		"ts_cal_low":      consts.TSCalLow,
		"ts_cal_high":     consts.TSCalHigh,
		"vref_cal":        consts.VrefCal,
		"temp_low_c":      consts.TempLowC,
		"temp_high_c":     consts.TempHighC,
		"vref_nominal_mv": consts.VrefNominalMV,
		"slope":           model.Slope,
		"intercept":       model.Intercept,
	})
}
