// Package scenario loads scenario definitions from YAML documents stored on
// any file system the afs service abstracts (local, mem, cloud). Documents
// may reference environment variables with ${env.KEY} expressions.
package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/saquib-ali-khan/distalgo/internal/yml"
	"github.com/saquib-ali-khan/distalgo/model"
	"github.com/saquib-ali-khan/distalgo/model/state"
	"github.com/saquib-ali-khan/distalgo/service/dao/store"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

// Service loads and caches scenario definitions.
type Service struct {
	fs      afs.Service
	baseURL string
	options []storage.Option
	cache   *store.MemoryStore[string, model.Scenario]
}

// New creates a scenario service. A nil fs defaults to the standard afs
// service; baseURL, when set, anchors relative scenario URLs; options are
// passed to every download (e.g. an embedded file system).
func New(fs afs.Service, baseURL string, options ...storage.Option) *Service {
	if fs == nil {
		fs = afs.New()
	}
	return &Service{
		fs:      fs,
		baseURL: baseURL,
		options: options,
		cache: store.NewMemoryStore[string, model.Scenario](func(s *model.Scenario) string {
			if s.Source == nil {
				return ""
			}
			return s.Source.URL
		}),
	}
}

// Load loads a scenario from YAML at the specified URL. A URL without an
// extension gets ".yaml" appended; relative URLs resolve against the service
// base URL. Loaded scenarios are cached by resolved URL.
func (s *Service) Load(ctx context.Context, URL string) (*model.Scenario, error) {
	URL = s.normalizeURL(URL)
	if cached, _ := s.cache.Load(ctx, URL); cached != nil {
		return cached, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL, s.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario from %s: %w", URL, err)
	}
	scenario, err := s.parse(URL, data)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Save(ctx, scenario)
	return scenario, nil
}

// Refresh drops the cached copy of the scenario at the specified URL, forcing
// a reload on next use.
func (s *Service) Refresh(URL string) {
	_ = s.cache.Delete(context.Background(), s.normalizeURL(URL))
}

// DecodeYAML decodes a scenario from an in-memory YAML document.
func (s *Service) DecodeYAML(encoded []byte) (*model.Scenario, error) {
	return s.parse("", encoded)
}

// normalizeURL applies the default extension and resolves relative locations
// against the service base URL.
func (s *Service) normalizeURL(URL string) string {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	if s.baseURL != "" && url.IsRelative(URL) {
		URL = url.Join(s.baseURL, URL)
	}
	return URL
}

func (s *Service) parse(URL string, encoded []byte) (*model.Scenario, error) {
	expanded := expandEnv(string(encoded))
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(expanded), &node); err != nil {
		return nil, fmt.Errorf("failed to parse scenario from %s: %w", URL, err)
	}
	scenario := &model.Scenario{}
	if URL != "" {
		scenario.Source = &model.Source{URL: URL}
		scenario.Name = nameFromURL(URL)
	}
	if err := parseScenario((*yml.Node)(&node), scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario from %s: %w", URL, err)
	}
	if issues := scenario.Validate(); len(issues) > 0 {
		return nil, issues[0]
	}
	return scenario, nil
}

// nameFromURL extracts the scenario name from a URL (file name without
// extension).
func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseScenario converts a YAML node to the scenario model.
func parseScenario(node *yml.Node, scenario *model.Scenario) error {
	rootNode := node
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		rootNode = (*yml.Node)(node.Content[0])
	}
	return rootNode.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				scenario.Name = valueNode.Value
			}
		case "description":
			if valueNode.Kind == yaml.ScalarNode {
				scenario.Description = valueNode.Value
			}
		case "transport":
			if valueNode.Kind == yaml.ScalarNode {
				scenario.Transport = valueNode.Value
			}
		case "eventtimeout":
			if valueNode.Kind == yaml.ScalarNode {
				scenario.EventTimeout = valueNode.Value
			}
		case "faults":
			faults, err := parseFaults(valueNode)
			if err != nil {
				return fmt.Errorf("failed to parse faults: %w", err)
			}
			scenario.Faults = faults
		case "groups":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("groups should be a sequence")
			}
			return valueNode.Items(func(index int, groupNode *yml.Node) error {
				group, err := parseGroup(groupNode)
				if err != nil {
					return fmt.Errorf("failed to parse group[%d]: %w", index, err)
				}
				scenario.Groups = append(scenario.Groups, group)
				return nil
			})
		}
		return nil
	})
}

// parseGroup converts a YAML node to a process group.
func parseGroup(node *yml.Node) (*model.Group, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("group node should be a mapping")
	}
	group := &model.Group{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "type":
			if valueNode.Kind == yaml.ScalarNode {
				group.Type = valueNode.Value
			}
		case "count":
			count, err := toolbox.ToInt(valueNode.Interface())
			if err != nil {
				return fmt.Errorf("count should be an integer: %w", err)
			}
			group.Count = count
		case "name":
			if valueNode.Kind == yaml.ScalarNode {
				group.Name = valueNode.Value
			}
		case "setup":
			if valueNode.Kind != yaml.SequenceNode {
				return fmt.Errorf("setup should be a sequence")
			}
			args, _ := valueNode.Interface().([]interface{})
			group.Setup = args
		case "vars":
			vars, err := parseVars(valueNode)
			if err != nil {
				return err
			}
			group.Vars = vars
		case "peers":
			if valueNode.Kind == yaml.ScalarNode {
				group.Peers = valueNode.Value
			}
		case "eventtimeout":
			if valueNode.Kind == yaml.ScalarNode {
				group.EventTimeout = valueNode.Value
			}
		case "faults":
			faults, err := parseFaults(valueNode)
			if err != nil {
				return err
			}
			group.Faults = faults
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// parseFaults converts a YAML mapping to a fault-rate table.
func parseFaults(node *yml.Node) (map[string]int, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("faults should be a mapping")
	}
	faults := make(map[string]int)
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		rate, err := toolbox.ToInt(valueNode.Interface())
		if err != nil {
			return fmt.Errorf("fault rate for %q should be an integer: %w", key, err)
		}
		faults[key] = rate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return faults, nil
}

// parseVars parses a sequence of name/value mappings into parameters.
func parseVars(node *yml.Node) (state.Parameters, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("vars should be a sequence")
	}
	var params state.Parameters
	err := node.Items(func(index int, item *yml.Node) error {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("vars items must be mappings")
		}
		param := &state.Parameter{}
		if err := item.Pairs(func(key string, valueNode *yml.Node) error {
			switch strings.ToLower(key) {
			case "name":
				param.Name = valueNode.Value
			case "value":
				param.Value = valueNode.Interface()
			case "datatype":
				param.DataType = valueNode.Value
			case "default":
				param.Default = valueNode.Interface()
			}
			return nil
		}); err != nil {
			return err
		}
		params = append(params, param)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return params, nil
}
