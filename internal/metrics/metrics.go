// Package metrics exports population events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"emergents/internal/evo"
	"emergents/internal/model"
	"emergents/internal/mutation"
)

const namespace = "emergents"

// Collector implements evo.Observer on top of a Prometheus registry.
type Collector struct {
	mutations      *prometheus.CounterVec
	generations    prometheus.Counter
	generation     prometheus.Gauge
	populationSize prometheus.Gauge
	meanLength     prometheus.Gauge
	minLength      prometheus.Gauge
	maxLength      prometheus.Gauge
	survivors      prometheus.Gauge
	survivalRate   prometheus.Gauge
	codingFraction prometheus.Gauge
	lengthSpread   prometheus.Histogram
}

var _ evo.Observer = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "population",
			Name:      name,
			Help:      help,
		})
	}
	return &Collector{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mutation",
			Name:      "attempts_total",
			Help:      "Mutation attempts by operator kind and outcome.",
		}, []string{"kind", "outcome"}),
		generations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "population",
			Name:      "generations_total",
			Help:      "Completed generations.",
		}),
		generation:     gauge("generation", "Latest completed generation."),
		populationSize: gauge("size", "Genomes in the population."),
		meanLength:     gauge("mean_genome_length", "Mean genome length in bases."),
		minLength:      gauge("min_genome_length", "Shortest genome length in bases."),
		maxLength:      gauge("max_genome_length", "Longest genome length in bases."),
		survivors:      gauge("survivors", "Genomes that survived the latest generation."),
		survivalRate:   gauge("mutation_survival_rate", "Share of neutral mutations in the latest generation."),
		codingFraction: gauge("mean_coding_fraction", "Mean share of coding bases per genome."),
		lengthSpread: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "population",
			Name:      "genome_length_std",
			Help:      "Standard deviation of genome length per generation.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

func (c *Collector) MutationEvaluated(kind mutation.Kind, outcome evo.Outcome) {
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	c.mutations.WithLabelValues(label, string(outcome)).Inc()
}

func (c *Collector) GenerationCompleted(s model.GenerationStats) {
	c.generations.Inc()
	c.generation.Set(float64(s.Generation))
	c.populationSize.Set(float64(s.PopulationSize))
	c.meanLength.Set(s.MeanLength)
	c.minLength.Set(float64(s.MinLength))
	c.maxLength.Set(float64(s.MaxLength))
	c.survivors.Set(float64(s.Survivors))
	c.survivalRate.Set(s.SurvivalRate)
	c.codingFraction.Set(s.MeanCodingFraction)
	c.lengthSpread.Observe(s.StdLength)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
