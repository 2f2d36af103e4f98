package spectracam

/*------------------------------------------------------------------
 *
 * Purpose:   	Wire the capture core to the host media pipeline.
 *
 * Description:	The host owns the camera, the image encoder and the
 *		event loop's frames; this package owns everything the
 *		shutter button touches.  The boundary is five callback
 *		slots the host provides (valve open/close, trigger
 *		capture, exit on error, frame resolution) and three
 *		entry points the
 *		core exposes (frame probe, filename hook, setup
 *		cascade).
 *
 *		Setup runs only after the camera is online, and
 *		cascades through the components leaves-first.  Any
 *		failure aborts the cascade and exits through the host.
 *
 *---------------------------------------------------------------*/

import (
	"github.com/charmbracelet/log"
)

// HostHooks is the host pipeline surface consumed by the core.
type HostHooks struct {
	OpenFocusValve      func()
	CloseFocusValve     func()
	TriggerImageCapture func()
	NotifyExit          func(err error)
	GetResolution       func() (width int, height int)
}

type App struct {
	sched  Scheduler
	host   *HostHooks
	sink   *ErrorSink
	config Config

	outputLog *OutputLog
	actuator  *FocusActuator
	machine   *CDAF
	gate      *AFGate
	sysCtrl   *SysCtrl
}

func NewApp(sched Scheduler, config Config, host *HostHooks) *App {
	var app = &App{
		sched:  sched,
		host:   host,
		config: config,
	}

	app.sink = NewErrorSink(host.NotifyExit)
	app.outputLog = NewOutputLog(config.DataRoot)
	app.actuator = NewFocusActuator(config.CameraID)

	app.gate = NewAFGate(sched, host, nil, app.sink)
	app.machine = NewCDAF(app.gate, app.actuator, app.sink)
	app.gate.machine = app.machine

	app.sysCtrl = NewSysCtrl(sched, config, app.gate, app.outputLog, app.sink)

	return app
}

/*-------------------------------------------------------------------
 *
 * Name:	RunSetup
 *
 * Purpose:	Bring every component online once the camera is up.
 *
 * Description:	Order matters: the spectrometer port first (most
 *		likely to be unplugged), then the lens bus and the
 *		autofocus chain, then the output file, and finally
 *		the sensor handshake which starts writing to it.
 *
 *--------------------------------------------------------------------*/

func (app *App) RunSetup() {
	log.Info("setting up capture core", "version", Version)

	var err error

	if err = app.sysCtrl.Setup(); err == nil {
		if err = app.actuator.Setup(); err == nil {
			if err = app.gate.Setup(); err == nil {
				err = app.outputLog.Setup()
			}
		}
	}

	if err != nil {
		app.sink.Fatal(err)
		return
	}

	app.sysCtrl.RunHandshake()
}

/* Host entry point: one admitted luminance frame. */

func (app *App) OnFocusFrame(frame []byte) {
	app.gate.OnFocusFrame(frame)
}

/* Host entry point: where should the image file go? */

func (app *App) ResolveImageFilename(fallback string) string {
	return app.outputLog.ImageFileName(fallback)
}

func (app *App) Teardown() {
	app.sysCtrl.Teardown()
	app.actuator.Teardown()
	app.outputLog.Teardown()
	log.Info("capture core shut down")
}
