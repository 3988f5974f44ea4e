//go:build js && wasm

package main

import (
	"context"
	"strconv"
	"syscall/js"

	"aosim/pkg/aosim"
)

func main() {
	js.Global().Set("runStarSimulation", js.FuncOf(runStarSimulation))
	js.Global().Set("runObservation", js.FuncOf(runObservation))
	select {} // block forever
}

// runStarSimulation(options) runs the synthetic star pipeline. Recognized
// options: resolution, extent, strength, terms, amplitude, frequency,
// correction, seed (number or decimal string), plot (bool).
func runStarSimulation(this js.Value, args []js.Value) interface{} {
	var opts js.Value
	if len(args) >= 1 && args[0].Type() == js.TypeObject {
		opts = args[0]
	}

	p := aosim.NewStarSimulationParams()
	p.Field.Size = intOption(opts, "resolution", p.Field.Size)
	p.Field.Extent = floatOption(opts, "extent", p.Field.Extent)
	p.Turbulence.Strength = floatOption(opts, "strength", p.Turbulence.Strength)
	p.Turbulence.LowFreqTerms = intOption(opts, "terms", p.Turbulence.LowFreqTerms)
	p.Turbulence.LowFreqAmplitude = floatOption(opts, "amplitude", p.Turbulence.LowFreqAmplitude)
	p.Turbulence.LowFreqFrequency = floatOption(opts, "frequency", p.Turbulence.LowFreqFrequency)
	p.CorrectionFraction = floatOption(opts, "correction", p.CorrectionFraction)
	p.Seed = seedOption(opts)

	res, err := aosim.RunStarSimulation(context.Background(), p)
	if err != nil {
		return errorResult("Simulation error: " + err.Error())
	}
	defer res.Close()

	jsResult := map[string]interface{}{
		"width":           p.Field.Size,
		"height":          p.Field.Size,
		"seed":            strconv.FormatUint(res.Seed, 10),
		"strehlBlurred":   res.StrehlDistorted,
		"strehlCorrected": res.StrehlCorrected,
		"residualNoise":   res.ResidualNoise,
	}

	jsMetrics := map[string]interface{}{}
	for _, m := range res.Metrics {
		jsMetrics[m.Name] = m.Value
	}
	jsResult["metrics"] = jsMetrics

	if res.FitIdeal != nil {
		jsResult["fwhmIdeal"] = res.FitIdeal.FWHM
	}
	if res.FitCorrected != nil {
		jsResult["fwhmCorrected"] = res.FitCorrected.FWHM
		jsResult["eccentricity"] = res.FitCorrected.Eccentricity
	}

	jsResult["profiles"] = map[string]interface{}{
		"row":       res.Profiles.Row,
		"ideal":     floatArray(res.Profiles.Ideal),
		"distorted": floatArray(res.Profiles.Distorted),
		"corrected": floatArray(res.Profiles.Corrected),
	}

	if boolOption(opts, "plot") {
		png, err := aosim.RenderStarFigureBytes(res)
		if err != nil {
			return errorResult("Render error: " + err.Error())
		}
		jsResult["plot"] = uint8Array(png)
	}

	return js.ValueOf(jsResult)
}

// runObservation(fileBytes, options) degrades an in-memory image and
// reports the quality metrics. Recognized options: strength, blur, seed,
// debayer (bool), plot (bool).
func runObservation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("usage: runObservation(fileBytes, options)")
	}

	jsBytes := args[0]
	fileBytes := make([]byte, jsBytes.Get("length").Int())
	js.CopyBytesToGo(fileBytes, jsBytes)

	var opts js.Value
	if len(args) >= 2 && args[1].Type() == js.TypeObject {
		opts = args[1]
	}

	p := aosim.NewObservationParams("")
	p.Turbulence.Strength = floatOption(opts, "strength", p.Turbulence.Strength)
	p.BlurSigma = floatOption(opts, "blur", p.BlurSigma)
	p.Debayer = boolOption(opts, "debayer")
	p.Seed = seedOption(opts)

	original, info, err := aosim.LoadImageBytes(fileBytes, aosim.LoadOptions{Debayer: p.Debayer})
	if err != nil {
		return errorResult("Decode error: " + err.Error())
	}

	res, err := aosim.RunObservationImage(context.Background(), original, info, p)
	if err != nil {
		return errorResult("Observation error: " + err.Error())
	}
	defer res.Close()

	jsResult := map[string]interface{}{
		"width":  res.Original.Cols(),
		"height": res.Original.Rows(),
		"seed":   strconv.FormatUint(res.Seed, 10),
		"mse":    res.MSE,
		"psnr":   res.PSNR,
		"noise":  res.NoiseSigma,
	}
	if info != nil {
		jsResult["format"] = info.Format
		if info.Object != "" {
			jsResult["object"] = info.Object
		}
	}

	if boolOption(opts, "plot") {
		png, err := aosim.RenderObservationFigureBytes(res)
		if err != nil {
			return errorResult("Render error: " + err.Error())
		}
		jsResult["plot"] = uint8Array(png)
	}

	return js.ValueOf(jsResult)
}

func floatOption(opts js.Value, name string, def float64) float64 {
	if opts.Type() != js.TypeObject {
		return def
	}
	if v := opts.Get(name); v.Type() == js.TypeNumber {
		return v.Float()
	}
	return def
}

func intOption(opts js.Value, name string, def int) int {
	if opts.Type() != js.TypeObject {
		return def
	}
	if v := opts.Get(name); v.Type() == js.TypeNumber {
		return v.Int()
	}
	return def
}

func boolOption(opts js.Value, name string) bool {
	if opts.Type() != js.TypeObject {
		return false
	}
	v := opts.Get(name)
	return v.Type() == js.TypeBoolean && v.Bool()
}

// seedOption accepts a number or a decimal string, so callers can pass
// seeds above the float64 integer range without losing precision.
func seedOption(opts js.Value) uint64 {
	if opts.Type() != js.TypeObject {
		return 0
	}
	v := opts.Get("seed")
	switch v.Type() {
	case js.TypeNumber:
		return uint64(v.Float())
	case js.TypeString:
		if seed, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return seed
		}
	}
	return 0
}

func floatArray(values []float64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func uint8Array(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func errorResult(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{
		"error": msg,
	})
}
