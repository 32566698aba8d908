package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jonas-p/go-shp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-suitability/internal/boundary"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <shapefile>",
	Short: "List the attribute columns of a shapefile",
	Long:  "Prints every attribute column of a shapefile with its DBF type and size, followed by the feature count, geometry type and extent.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, err := boundary.Load(args[0])
		if err != nil {
			return err
		}
		formatColumns(cmd.OutOrStdout(), layer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}

// formatColumns writes the column table and layer summary to w.
func formatColumns(w io.Writer, layer *boundary.Layer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Column", "Type", "Size", "Decimals"})
	for i, f := range layer.Fields {
		table.Append([]string{
			strconv.Itoa(i + 1),
			boundary.FieldName(f),
			string(f.Fieldtype),
			strconv.Itoa(int(f.Size)),
			strconv.Itoa(int(f.Precision)),
		})
	}
	table.Render()

	_, _ = fmt.Fprintf(w, "Features: %d\n", layer.Len())
	_, _ = fmt.Fprintf(w, "Geometry: %s\n", geometryName(layer.Type))
	if b := layer.Bounds(); !b.IsEmpty() {
		_, _ = fmt.Fprintf(w, "Bounds:   [%g, %g] - [%g, %g]\n", b.Min(0), b.Min(1), b.Max(0), b.Max(1))
	}
}

func geometryName(t shp.ShapeType) string {
	switch t {
	case shp.NULL:
		return "Null"
	case shp.POINT:
		return "Point"
	case shp.POLYLINE:
		return "PolyLine"
	case shp.POLYGON:
		return "Polygon"
	case shp.MULTIPOINT:
		return "MultiPoint"
	case shp.POINTZ:
		return "PointZ"
	case shp.POLYLINEZ:
		return "PolyLineZ"
	case shp.POLYGONZ:
		return "PolygonZ"
	case shp.MULTIPOINTZ:
		return "MultiPointZ"
	case shp.POINTM:
		return "PointM"
	case shp.POLYLINEM:
		return "PolyLineM"
	case shp.POLYGONM:
		return "PolygonM"
	case shp.MULTIPOINTM:
		return "MultiPointM"
	case shp.MULTIPATCH:
		return "MultiPatch"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}
