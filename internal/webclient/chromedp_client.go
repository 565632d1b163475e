package webclient

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/model"
)

// ChromeDPClient renders pages in a headless browser so script-built DOM is
// visible to the analyzer. It is strictly best-effort: no status code or
// headers survive the rendering boundary, so 200 is assumed on success.
type ChromeDPClient struct {
	timeout time.Duration
	logger  logging.Logger
}

func NewChromeDPClient(cfg Config, logger logging.Logger) (WebClient, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	componentLogger.Info("created chromedp webclient",
		logging.Field{Key: "timeout", Value: timeout.String()})

	return &ChromeDPClient{timeout: timeout, logger: componentLogger}, nil
}

// waitNetworkIdle signals once no network request has been active for
// idleAfter. Used to let script-driven pages settle before snapshotting.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) == 0 {
					startTimer()
				}
			}
		})

	return idleChan
}

func (cdc *ChromeDPClient) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	runCtx, cancelBrowser := chromedp.NewContext(ctx)
	defer cancelBrowser()

	runCtx, cancelTimeout := context.WithTimeout(runCtx, cdc.timeout)
	defer cancelTimeout()

	waitIdleChan := waitNetworkIdle(runCtx, 2*time.Second)

	if err := chromedp.Run(runCtx, chromedp.Navigate(req.URL)); err != nil {
		cdc.logger.Warn("navigation failed",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}

	select {
	case <-waitIdleChan:
	case <-runCtx.Done():
	}

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, err
	}

	return &model.Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
		StatusCode: http.StatusOK,
		FetchedAt:  time.Now(),
	}, nil
}

func (cdc *ChromeDPClient) Close() error {
	cdc.logger.Info("closing chromedp webclient")
	return nil
}
