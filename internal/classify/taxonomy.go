// Package classify assigns taxonomy categories to papers and filters out
// records that are not about machine learning for accelerator physics.
// Two classifier implementations share one contract: a pure keyword
// classifier and an embedding classifier backed by a vector provider.
package classify

// Category is one taxonomy entry. The description is what the embedding
// classifier compares papers against.
type Category struct {
	Label       string
	Description string
}

// OthersLabel is the fallback category for papers nothing else fits.
const OthersLabel = "Others"

// Taxonomy is the review's category set, in presentation order.
var Taxonomy = []Category{
	{"Statistics & Trends", "Papers about statistical analysis, bibliometrics, and trends in AI/ML for accelerators"},
	{"Reviews", "Systematic review papers or surveys explicitly summarizing prior research results in accelerator physics and machine learning excluding software frameworks"},
	{"Optimization & Control", "Research on optimization algorithms, control systems, tuning, and feedback"},
	{"Anomaly Detection & Fault Prediction", "Papers on anomaly detection, fault prediction, and predictive maintenance"},
	{"Reinforcement Learning & Autonomous Systems", "Studies on reinforcement learning, autonomous agents, and self-driving accelerators"},
	{"Beamline Design & Simulation", "Research on accelerator design, simulation, and modeling"},
	{"Beam Dynamics", "Research on beam dynamics, instabilities, emittance, optics, and collective effects"},
	{"Operations & Control", "Papers on accelerator operations, automation, control systems, and stability feedback"},
	{"RF Systems", "Studies related to RF cavities, superconducting RF, klystrons, and linac RF systems"},
	{"Beam Diagnostics", "Research on beam diagnostics, beam position monitors, detectors, and instrumentation"},
	{"Surrogate Models", "Papers on surrogate modeling, reduced models, emulators, and digital twins for accelerators"},
	{"Novel Applications", "Novel or cross-disciplinary applications of AI/ML in accelerators and related sciences"},
	{"Data Management", "Research on data pipelines, data management, FAIR data, and feature stores for accelerator AI"},
	{"By Facility Type", "Papers categorized by specific accelerator facilities such as LHC, FCC, XFEL, SPIRAL2, synchrotron light sources"},
	{"Tools & Libraries", "Papers introducing or using open-source tools, toolkits, software frameworks, libraries, or packages for accelerator AI/ML"},
	{OthersLabel, "Papers that do not fit clearly into the defined categories"},
}

// Labels returns the taxonomy labels in order.
func Labels() []string {
	labels := make([]string, len(Taxonomy))
	for i, c := range Taxonomy {
		labels[i] = c.Label
	}
	return labels
}

// ValidLabel reports whether a label belongs to the taxonomy.
func ValidLabel(label string) bool {
	for _, c := range Taxonomy {
		if c.Label == label {
			return true
		}
	}
	return false
}

// reviewTerms mark survey papers regardless of embedding score.
var reviewTerms = []string{"review", "survey", "state of the art"}

// toolTerms mark software framework papers.
var toolTerms = []string{"framework", "tool", "library", "package", "geoff"}

// negativeTerms veto records from neighboring domains that share vocabulary
// with accelerator ML (hardware accelerators, HEP analysis, beam machining).
var negativeTerms = []string{
	"beam search", "electron beam lithography", "laser beam welding",
	"calorimeter", "jet tagging", "higgs", "dark matter",
	"cross-section", "spectroscopy", "beta decay",
	"fine structure", "atomic levels", "earthquake", "tsunami", "climate",
	"weather", "natural disaster", "hardware acceleration", "gpu acceleration",
	"cuda", "embedded device", "structural assessment",
	"hardware accelerator", "cnn accelerator", "fpga", "vlsi", "asic",
	"embedded system", "microcontroller", "on-chip", "edge computing",
	"internet of things", "hardware trojan", "secure hardware", "neural engine",
}

// Reference texts scored against each paper by the embedding relevance
// filter.
const (
	accelQuery = "particle accelerator, accelerator physics, beam dynamics, synchrotron, collider, " +
		"linac, superconducting cavity, RF cavity, cryomodule, beamline, " +
		"accelerator design, accelerator tuning, beam diagnostics, emittance, luminosity optimization, " +
		"accelerator operation, accelerator fault detection, accelerator control, " +
		"beam optics, beam instrumentation, beam monitoring, beam feedback, beam loss, quench prevention, " +
		"free electron laser, undulator, plasma wakefield acceleration, synchrotron radiation, light source, " +
		"FEL, BPM, SRF, particle beam, charged particle, ion beam, electron beam, proton beam"

	mlQuery = "machine learning, deep learning, reinforcement learning, surrogate model, anomaly detection, " +
		"graph neural network, physics-informed neural network, foundation model, neural network, " +
		"autoencoder, GAN, diffusion model, transformer, supervised learning, unsupervised learning, " +
		"classification, regression, clustering, time series, forecasting, optimization, policy learning, " +
		"LLM, large language model, interpretability, explainable AI, fault detection"

	noiseQuery = "cloud computing, workflow platform, Kubernetes, Docker, infrastructure, virtualization, " +
		"particle detectors, calorimeter, jet tagging, Higgs, dark matter, spectroscopy, " +
		"cross-section measurement, beta spectroscopy, atomic fine structure"
)
