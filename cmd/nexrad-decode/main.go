package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/blakeridgway/supercell-wx/wsr88d"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	LogLevel     string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
	ShowRadials  bool   `long:"show-radials" description:"dumps a summary of every radial"`
	HideProgress bool   `long:"hide-progress" description:"disables the read progress bar"`
}

func main() {

	// parse the input args
	_, err := flags.Parse(&cli)
	if err != nil {
		os.Exit(1)
	}

	// set the logging level
	errorLevels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(errorLevels[cli.LogLevel])

	f, err := os.Open(cli.Args.Filename)
	if err != nil {
		logrus.Fatal(err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.Info(color.CyanString("decoding %s", cli.Args.Filename))

	var reader io.Reader = f
	if !cli.HideProgress {
		bar := pb.Full.Start64(stat.Size())
		defer bar.Finish()
		reader = bar.NewProxyReader(f)
	}

	file, err := wsr88d.NewNexradFile(reader)
	if err != nil {
		logrus.Fatal(err)
	}

	fmt.Printf("%s %s %s\n",
		color.GreenString(file.RadarID()),
		file.Group(),
		file.StartTime().Format("2006-01-02 15:04:05 MST"))

	switch v := file.(type) {
	case *wsr88d.Level2File:
		printLevel2(v)
	case *wsr88d.Level3File:
		printLevel3(v)
	}
}

func printLevel2(f *wsr88d.Level2File) {
	fmt.Printf("volume %s, %d elevation cuts\n", f.VolumeHeader.Filename(), len(f.ElevationScans))

	for i, cut := range f.ElevationCuts() {
		scan := f.ElevationScans[i+1]
		fmt.Printf("  cut %2d: %6.2f deg, %d radials\n", i+1, cut, len(scan))

		if cli.ShowRadials {
			for _, m31 := range scan {
				fmt.Printf("    %s\n", m31.Header)
			}
		}
	}
}

func printLevel3(f *wsr88d.Level3File) {
	msg := f.Message()
	fmt.Printf("product %s code %d at (%.3f, %.3f), %d radials\n",
		f.Product(), msg.Code, msg.Latitude, msg.Longitude, len(msg.Radials))
}
