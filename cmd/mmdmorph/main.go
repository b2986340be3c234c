package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/mmdmorph/config"
	"github.com/binzume/mmdmorph/converter"
	"github.com/binzume/mmdmorph/logger"
	"github.com/binzume/mmdmorph/morph"
	"github.com/binzume/mmdmorph/motion"
	"github.com/binzume/mmdmorph/preview"
	"go.uber.org/zap"
)

type options struct {
	morphs     string
	preset     string
	configFile string
	vmd        string
	frame      float64
	validate   bool
	joints     bool
	flat       bool
	dropMorphs bool
	yaw, pitch float64
	flags      config.Flags
}

func loadConfig(opt *options) (*config.Config, error) {
	cfg := config.Default()
	if opt.configFile != "" {
		var err error
		if cfg, err = config.Load(opt.configFile); err != nil {
			return nil, err
		}
	}
	cfg.Resolve(opt.flags)
	if opt.yaw != 0 {
		cfg.Preview.Yaw = float32(opt.yaw)
	}
	if opt.pitch != 0 {
		cfg.Preview.Pitch = float32(opt.pitch)
	}
	return cfg, cfg.Validate()
}

func buildDriver(cfg *config.Config, opt *options) (motion.Driver, error) {
	var mix motion.Mix

	if opt.vmd != "" {
		anim, err := loadAnimation(opt.vmd)
		if err != nil {
			return nil, err
		}
		track := motion.NewTrack(anim)
		logger.Info("motion loaded", zap.String("file", opt.vmd), zap.Uint32("lastFrame", track.LastFrame()))
		mix = append(mix, track)
	}

	if opt.preset != "" {
		p, err := cfg.Preset(opt.preset)
		if err != nil {
			return nil, err
		}
		set, err := motion.NewExpressionSet(p, cfg.Motion.FPS)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", opt.preset, err)
		}
		mix = append(mix, set)
	}

	weights, err := parseWeights(opt.morphs)
	if err != nil {
		return nil, err
	}
	mix = append(mix, motion.Static(weights))

	if cfg.Motion.Smoothing < 1 {
		// replay from frame 0 so the smoothed state matches the requested frame
		s := motion.NewSmoother(mix, cfg.Motion.Smoothing)
		var w map[string]float32
		for f := 0.0; f <= opt.frame; f++ {
			w = s.Weights(f)
		}
		return motion.Static(w), nil
	}
	return mix, nil
}

func printSummary(model *converter.Model, issues []converter.Issue, report *converter.Report) {
	m := model.Manager
	fmt.Printf("model: %s\n", model.Name)
	fmt.Printf("vertexes: %d faces: %d materials: %d morphs: %d\n",
		len(model.Positions), len(model.Faces), len(model.Materials), m.MorphCount())
	for i, mo := range m.Morphs() {
		mark := " "
		if w := mo.Weight; w >= morph.WeightEpsilon || w <= -morph.WeightEpsilon {
			mark = "*"
		}
		fmt.Printf("%s %4d %-8s %6.3f %s (%d)\n", mark, i, mo.Type, mo.Weight, mo.Name, mo.Len())
	}
	for _, issue := range issues {
		fmt.Println("issue:", issue)
	}
	fmt.Println("result:", report)
}

func run(input, output string, opt *options) error {
	cfg, err := loadConfig(opt)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return err
	}
	defer logger.Sync()

	model, doc, err := loadModel(input)
	if err != nil {
		return err
	}
	boneCount := 0
	if model.Skeleton != nil {
		boneCount = len(model.Skeleton.Bones)
	}
	issues := converter.Validate(model.Manager, boneCount)
	for _, issue := range issues {
		logger.Warn("morph issue", zap.Stringer("issue", issue))
	}
	if opt.validate && len(issues) > 0 {
		return fmt.Errorf("%d morph issues found", len(issues))
	}

	driver, err := buildDriver(cfg, opt)
	if err != nil {
		return err
	}
	for _, name := range motion.Apply(model.Manager, driver, opt.frame) {
		logger.Warn("morph not found", zap.String("name", name))
	}

	positions := model.Pose()
	report := converter.NewReport(model.Manager, model.Positions, positions)
	logger.Info("morphs applied", zap.Float64("frame", opt.frame), zap.Stringer("result", report))

	if output == "" {
		printSummary(model, issues, report)
		return nil
	}

	if strings.ToLower(filepath.Ext(output)) == ".pmx" {
		if doc == nil {
			return fmt.Errorf("baking to .pmx needs .pmx or .pmd input")
		}
		baked, err := converter.Bake(doc, model, &converter.BakeOptions{DropMorphs: opt.dropMorphs})
		if err != nil {
			return err
		}
		return savePMX(baked, output)
	}

	format := previewFormat(output, opt.flags.Format != "", cfg.Preview.Format)
	bg, err := preview.ParseColor(cfg.Preview.Background)
	if err != nil {
		return err
	}
	r := preview.NewRenderer(cfg.Preview.Size, cfg.Preview.Supersample)
	r.Background = bg
	r.Joints = opt.joints
	if !opt.flat {
		r.Textures = preview.LoadTextures(model, filepath.Dir(input))
	}
	r.Camera.Yaw = cfg.Preview.Yaw
	r.Camera.Pitch = cfg.Preview.Pitch
	r.Camera.Fit(model.Positions)
	img := r.Render(model, positions)

	w, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := preview.Encode(w, img, format); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] input.(pmx|pmd|glb|vrm) [output.(pmx|png|webp)]\n", os.Args[0])
		flag.PrintDefaults()
	}
	var opt options
	flag.StringVar(&opt.morphs, "morph", "", "morph weights: name=w,name2=w2")
	flag.StringVar(&opt.preset, "preset", "", "weight preset name in config")
	flag.StringVar(&opt.configFile, "config", "", "config file (yaml)")
	flag.StringVar(&opt.vmd, "vmd", "", "motion file for morph weights")
	flag.Float64Var(&opt.frame, "frame", 0, "frame number")
	flag.BoolVar(&opt.validate, "validate", false, "fail when morph data has issues")
	flag.BoolVar(&opt.joints, "joints", false, "draw bone positions in preview")
	flag.BoolVar(&opt.flat, "flat", false, "ignore textures in preview")
	flag.BoolVar(&opt.dropMorphs, "dropmorphs", false, "remove morphs from baked .pmx")
	flag.Float64Var(&opt.yaw, "yaw", 0, "preview camera yaw (degrees)")
	flag.Float64Var(&opt.pitch, "pitch", 0, "preview camera pitch (degrees)")
	flag.StringVar(&opt.flags.LogLevel, "loglevel", "", "debug, info, warn or error")
	flag.StringVar(&opt.flags.LogFile, "logfile", "", "log file")
	flag.IntVar(&opt.flags.Size, "size", 0, "preview size in pixels")
	flag.StringVar(&opt.flags.Format, "format", "", "preview format (png or webp), overrides the output extension")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	output := ""
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	if err := run(flag.Arg(0), output, &opt); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Fatal("mmdmorph failed", zap.Error(err))
	}
}
