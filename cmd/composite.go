package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"lst-tools/config"
	"lst-tools/export"
	"lst-tools/imagery"
	"lst-tools/pipeline"
	"lst-tools/platform"
	"lst-tools/render"
)

// compositeCmd represents the composite command
var compositeCmd = &cobra.Command{
	Use:   "composite",
	Short: "Build a surface temperature composite and register its export task",
	Long: `Queries the catalog for scenes acquired in [start, end) that cover the
	point of interest, converts every scene to reflectance and degrees Fahrenheit,
	averages them per pixel, clips the composite to the region and prints a band
	summary. An export task is registered in the READY state; run it with
	'tasks launch'.

	Options:
		--numWorkers:  Number of workers to spawn for parallel processing.
		--reducer:     Temporal reducer, choose from: mean, sum, max, min
		--expr:        Extra band math applied after scaling, OUTPUT=EXPRESSION.
		               May be repeated.
		--strict-bands: Fail when a scene has no optical or thermal band.
		--preview:     Write the visualized map layer to a PNG file.
		--format:      Export format, choose from: geotiff, parquet, csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevels()

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		local, closePlatform, err := openPlatform(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closePlatform(); err != nil {
				logrus.Error(err)
			}
		}()

		return runComposite(cmd.Context(), cmd.OutOrStdout(), local, cfg)
	},
}

func runComposite(ctx context.Context, out io.Writer, local *platform.Local, cfg *config.Config) error {
	built, err := cfg.Recipe().Build()
	if err != nil {
		return err
	}

	clipped, err := local.Materialize(ctx, built.Clipped)
	if err != nil {
		return err
	}
	writeSummary(out, clipped)
	if area, err := platform.RegionArea(cfg.Region); err == nil {
		fmt.Fprintf(out, "Region area: %.0f m2\n", area)
	} else {
		logrus.Warn(err)
	}

	if path := viper.GetString("preview"); path != "" {
		if err := writePreview(ctx, local, built.Visualized, cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Map layer %q written to %s\n", cfg.MapLayer, path)
	}

	if viper.GetBool("noExport") {
		return nil
	}
	task, err := local.Export(ctx, exportTarget(built, cfg.Export.Format), cfg.Export)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Export task %s registered (%s). Run: lst-tools tasks launch %s\n", task.ID, task.State, task.ID)
	return nil
}

// exportTarget picks the exported image: GeoTIFF exports carry the rendered
// visualization, table exports carry the clipped temperatures.
func exportTarget(built pipeline.Built, format export.Format) *pipeline.Image {
	if format == export.FormatGeoTIFF {
		return built.Visualized
	}
	return built.Clipped
}

func writeSummary(w io.Writer, img *imagery.Image) {
	fmt.Fprintf(w, "Image %s, %dx%d pixels, acquired %s\n", img.ID, img.Width, img.Height, img.Time.Format("2006-01-02"))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Band", "Valid", "Total", "Min", "Max", "Mean"})
	for _, s := range imagery.Stats(img) {
		table.Append([]string{
			s.Band,
			strconv.Itoa(s.Valid),
			strconv.Itoa(s.Total),
			formatValue(s.Min),
			formatValue(s.Max),
			formatValue(s.Mean),
		})
	}
	table.Render()
}

func formatValue(v float64) string {
	if imagery.IsNoData(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func writePreview(ctx context.Context, local *platform.Local, vis *pipeline.Image, cfg *config.Config, path string) (err error) {
	img, err := local.Materialize(ctx, vis)
	if err != nil {
		return err
	}
	size := viper.GetInt("previewSize")
	canvas, err := render.Preview(img, cfg.Map, size, size)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return render.EncodePNG(f, canvas)
}

func init() {
	rootCmd.AddCommand(compositeCmd)

	compositeCmd.Flags().IntP("numWorkers", "n", 8, "Number of workers to spawn for parallel processing")
	bindFlag(compositeCmd, "numWorkers", "numWorkers")

	compositeCmd.Flags().StringP("reducer", "a", "mean", "Temporal reducer, choose from: mean, sum, max, min")
	bindFlag(compositeCmd, "reducer", "reducer")

	compositeCmd.Flags().String("catalog", "LANDSAT/LC09/C02/T1_L2", "Collection id to query")
	bindFlag(compositeCmd, "catalog.id", "catalog")

	compositeCmd.Flags().String("catalogDir", "data/catalog", "Directory of GeoTIFF scenes, one sub directory per collection")
	bindFlag(compositeCmd, "catalog.dir", "catalogDir")

	compositeCmd.Flags().String("start", "2024-07-01", "First acquisition date, inclusive")
	bindFlag(compositeCmd, "date.start", "start")

	compositeCmd.Flags().String("end", "2024-07-04", "Last acquisition date, exclusive")
	bindFlag(compositeCmd, "date.end", "end")

	compositeCmd.Flags().String("point", "-72.63042,42.32882", "Point of interest as lng,lat")
	bindFlag(compositeCmd, "point", "point")

	compositeCmd.Flags().String("clip", "-72.74243,42.28324,-72.58300,42.37614", "Clip box as west,south,east,north")
	bindFlag(compositeCmd, "clip", "clip")

	compositeCmd.Flags().String("region", "", "GeoJSON file with the clip region, overrides --clip")
	bindFlag(compositeCmd, "region", "region")

	compositeCmd.Flags().StringArray("expr", nil, "Band math applied after scaling, OUTPUT=EXPRESSION")
	bindFlag(compositeCmd, "expr", "expr")

	compositeCmd.Flags().Bool("strict-bands", false, "Fail when a scene has no optical or thermal band")
	bindFlag(compositeCmd, "strictBands", "strict-bands")

	compositeCmd.Flags().String("preview", "", "Write the visualized map layer to this PNG file")
	bindFlag(compositeCmd, "preview", "preview")

	compositeCmd.Flags().Int("previewSize", 512, "Preview width and height in pixels")
	bindFlag(compositeCmd, "previewSize", "previewSize")

	compositeCmd.Flags().StringP("format", "f", "geotiff", "Export format, choose from: geotiff, parquet, csv")
	bindFlag(compositeCmd, "export.format", "format")

	compositeCmd.Flags().String("description", "Noho_temperature_7_2_2024", "Export description, also the output file name")
	bindFlag(compositeCmd, "export.description", "description")

	compositeCmd.Flags().Float64("scale", 30, "Export pixel size in meters")
	bindFlag(compositeCmd, "export.scale", "scale")

	compositeCmd.Flags().Bool("noExport", false, "Do not register an export task")
	bindFlag(compositeCmd, "noExport", "noExport")
}
