// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package metrics provides Prometheus metrics for the recommendation engine.

All collectors are registered on the default registry through promauto and
exported at /metrics by the API router:

	curl http://localhost:8080/metrics

# Available Metrics

Recommendations:
  - newsrec_recommendation_requests_total
  - newsrec_recommendations_served_total{source}

Feedback:
  - newsrec_reactions_total{reaction}
  - newsrec_reaction_errors_total{kind}
  - newsrec_cache_refresh_requests_total

Score cache:
  - newsrec_cache_recompute_duration_seconds
  - newsrec_cache_recompute_candidates
  - newsrec_cache_recompute_errors_total
  - newsrec_cache_refresh_all_duration_seconds

Similarity index:
  - newsrec_index_build_duration_seconds
  - newsrec_index_documents
  - newsrec_index_vocabulary_size
  - newsrec_index_build_errors_total{reason}
  - newsrec_similarity_query_duration_seconds{kind}

Sessions:
  - newsrec_session_store_entries

Events and scheduler:
  - newsrec_events_published_total{topic}
  - newsrec_events_handled_total{topic,status}
  - newsrec_scheduler_job_runs_total{job,status}
  - newsrec_scheduler_job_duration_seconds{job}

API:
  - newsrec_api_requests_total{method,route,status_code}
  - newsrec_api_request_duration_seconds{method,route}
  - newsrec_api_active_requests

Routes are labeled with the chi route pattern rather than the raw path to
keep label cardinality bounded.
*/
package metrics
