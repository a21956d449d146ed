// Command plotdemo renders a YAML plot configuration over synthetic data
// to a PNG file.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gogpu/gpuplot"
	"github.com/gogpu/gpuplot/backend"
	_ "github.com/gogpu/gpuplot/backend/software"
	_ "github.com/gogpu/gpuplot/backend/wgpu"
	"github.com/gogpu/gpuplot/config"
	"github.com/gogpu/gpuplot/data"
	"github.com/gogpu/gpuplot/gpucore"
)

const defaultConfig = `
layers:
  - points:
      x: time
      y: voltage
      color: temperature
      filter: temperature
      size: 5
  - lines:
      x: time
      y: {scale: {x: voltage, k: 0.5}}
      y_kind: voltage_V
  - histogram:
      input: noise
      bins: 40
      xaxis: xaxis_top
      yaxis: yaxis_right
      base_color: "#ff7f0e80"
axes:
  temperature_K:
    colorscale: plasma
    colorbar: vertical
`

func main() {
	var (
		configPath = flag.String("config", "", "YAML plot configuration (built-in demo when empty)")
		output     = flag.String("output", "plot.png", "output file")
		backendArg = flag.String("backend", "", "device backend (wgpu, software; best available when empty)")
		rows       = flag.Int("rows", 500, "number of synthetic rows")
		scale      = flag.Float64("scale", 1, "output scale factor")
		pickAt     = flag.String("pick", "", "report the primitive under pixel x,y")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		gpuplot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	doc, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	src, err := synthetic(*rows)
	if err != nil {
		log.Fatalf("Failed to build data: %v", err)
	}
	dev, err := openDevice(*backendArg)
	if err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer dev.Destroy()

	p, err := gpuplot.New(dev, nil, gpuplot.WithSize(doc.Width, doc.Height))
	if err != nil {
		log.Fatalf("Failed to create plot: %v", err)
	}
	defer p.Close()

	if err := p.Update(doc, src); err != nil {
		log.Fatalf("Failed to apply config: %v", err)
	}
	img, err := p.Image()
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}

	if *pickAt != "" {
		var x, y int
		if _, err := fmt.Sscanf(*pickAt, "%d,%d", &x, &y); err != nil {
			log.Fatalf("Bad -pick %q: %v", *pickAt, err)
		}
		r, ok, err := p.Pick(x, y)
		switch {
		case err != nil:
			log.Fatalf("Pick failed: %v", err)
		case ok:
			log.Printf("Pick (%d, %d): %v", x, y, r)
		default:
			log.Printf("Pick (%d, %d): background", x, y)
		}
	}

	if err := savePNG(*output, img, *scale); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Plot saved to %s (%dx%d, %s backend)\n", *output, doc.Width, doc.Height, dev.Name())
}

func loadConfig(path string) (*config.Document, error) {
	if path == "" {
		return config.Parse([]byte(defaultConfig))
	}
	return config.Load(path)
}

func openDevice(name string) (gpucore.Device, error) {
	if name == "" {
		return backend.Default()
	}
	return backend.Get(name)
}

// synthetic builds a damped oscillation sampled over ten seconds, a
// temperature ramp and a column of normal noise.
func synthetic(n int) (*data.Table, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 rows, got %d", n)
	}
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(1, 2)}

	t := make([]float32, n)
	v := make([]float32, n)
	temp := make([]float32, n)
	z := make([]float32, n)
	for i := range n {
		s := 10 * float64(i) / float64(n-1)
		t[i] = float32(s)
		v[i] = float32(math.Exp(-s/4)*math.Sin(2*s) + 0.05*noise.Rand())
		temp[i] = float32(280 + 4*s)
		z[i] = float32(noise.Rand())
	}
	return data.NewTable(
		data.Column{Name: "time", QuantityKind: "time_s", Values: t},
		data.Column{Name: "voltage", QuantityKind: "voltage_V", Values: v},
		data.Column{Name: "temperature", QuantityKind: "temperature_K", Values: temp},
		data.Column{Name: "noise", QuantityKind: "noise", Values: z},
	)
}

func savePNG(path string, img *image.RGBA, scale float64) error {
	out := image.Image(img)
	if scale != 1 {
		if scale <= 0 {
			return fmt.Errorf("scale %g must be positive", scale)
		}
		b := img.Bounds()
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		out = dst
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
