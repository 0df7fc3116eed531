// Package elections holds the election results domain model: CSV ingestion
// for the MIT Election Lab president/senate files and the aggregate analytics
// the dashboard charts are built from. Datasets are immutable after load;
// all analytics derive their answers from the loaded rows on demand.
package elections
