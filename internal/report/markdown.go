package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ecv-analytics/deptcluster/internal/pipeline"
)

func buildMarkdown(res *pipeline.Result, files []string) string {
	ds := res.Dataset
	cfg := res.Config

	report := `# CLUSTERS DE DEPARTAMENTOS DE COLOMBIA
## Análisis de componentes principales y k-means sobre indicadores socioeconómicos

### 📊 RESUMEN

`
	report += fmt.Sprintf("- **Run**: `%s`\n", res.RunID)
	report += fmt.Sprintf("- **Fecha**: %s\n", res.StartedAt.Format("2006-01-02 15:04:05"))
	report += fmt.Sprintf("- **Archivo**: %s\n", filepath.Base(cfg.Input))
	report += fmt.Sprintf("- **Departamentos analizados**: %d\n", ds.Rows())
	report += fmt.Sprintf("- **Filas descartadas**: %d\n", len(ds.Dropped))
	report += fmt.Sprintf("- **Indicadores**: %d\n", len(ds.Indicators))

	selection := "fijo"
	if res.Reduction.AutoSelected {
		selection = fmt.Sprintf("umbral %s", formatPercent(cfg.PCA.VarianceThreshold))
	}
	report += fmt.Sprintf("- **Componentes principales**: %d (%s, varianza explicada %s)\n",
		res.Reduction.Components, selection, formatPercent(res.Reduction.Model.Cumulative[res.Reduction.Components-1]))
	report += fmt.Sprintf("- **Clusters (k)**: %d, inicialización %s, %d reinicios, semilla %d\n",
		res.KMeans.K(), cfg.KMeans.Init, cfg.KMeans.NInit, cfg.KMeans.Seed)
	report += fmt.Sprintf("- **Inercia**: %s\n", formatNumber(res.KMeans.Inertia))

	if len(ds.Dropped) > 0 {
		report += "\n### ⚠️ FILAS DESCARTADAS\n\n"
		report += "| Fila | Departamento | Indicadores faltantes |\n"
		report += "|------|--------------|-----------------------|\n"
		for _, d := range ds.Dropped {
			key := d.Key
			if key == "" {
				key = "(sin nombre)"
			}
			report += fmt.Sprintf("| %d | %s | %s |\n", d.Index+2, key, strings.Join(d.Missing, ", "))
		}
	}

	report += "\n### 📈 VARIANZA EXPLICADA\n\n"
	report += "| Componente | Varianza | Proporción | Acumulada |\n"
	report += "|------------|----------|------------|-----------|\n"
	full := res.Reduction.Full
	for j := range full.Ratio {
		marker := ""
		if j == res.Reduction.Components-1 {
			marker = " ◀"
		}
		report += fmt.Sprintf("| PC%d | %.4f | %s | %s%s |\n",
			j+1, full.Variance[j], formatPercent(full.Ratio[j]), formatPercent(full.Cumulative[j]), marker)
	}

	report += "\n### 📉 CURVA DEL CODO\n\n"
	report += "| k | Inercia | Silueta |\n"
	report += "|---|---------|---------|\n"
	for _, pt := range res.Elbow {
		report += fmt.Sprintf("| %d | %s | %s |\n", pt.K, formatNumber(pt.Inertia), formatNumber(pt.Silhouette))
	}

	report += "\n### 🎯 DEPARTAMENTOS POR CLUSTER\n"
	for _, p := range res.Profiles {
		report += fmt.Sprintf("\n**%s** (%d departamentos)\n", clusterName(p.Cluster), p.Size())
		for _, m := range p.Members {
			report += fmt.Sprintf("- %s\n", m)
		}
	}

	report += "\n### 🧭 PERFIL DE LOS CLUSTERS (promedio por indicador)\n\n"
	report += "| Indicador |"
	sep := "|-----------|"
	for _, p := range res.Profiles {
		report += fmt.Sprintf(" %s |", clusterName(p.Cluster))
		sep += "-----------|"
	}
	report += "\n" + sep + "\n"
	for j, name := range ds.Indicators {
		report += fmt.Sprintf("| %s |", name)
		for _, p := range res.Profiles {
			report += fmt.Sprintf(" %s |", formatNumber(p.Means[j]))
		}
		report += "\n"
	}

	if len(files) > 0 {
		report += "\n### 📁 ARCHIVOS GENERADOS\n\n"
		for _, f := range files {
			report += fmt.Sprintf("- %s\n", filepath.Base(f))
		}
	}

	return report
}
