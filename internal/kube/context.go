/*
Copyright (c) 2025 Mike Lane

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package kube

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
)

// ErrContextNotFound is returned when the requested context does not exist
// in the kubeconfig.
var ErrContextNotFound = errors.New("context not found in kubeconfig")

// ErrNamespaceNotFound is returned when the target namespace does not exist
// in the cluster.
var ErrNamespaceNotFound = errors.New("namespace not found")

// Manager selects kubeconfig contexts and runs cluster preflight checks.
type Manager struct {
	loadingRules *clientcmd.ClientConfigLoadingRules

	// newClientset builds the typed clientset; replaced in tests.
	newClientset func() (kubernetes.Interface, error)
}

// NewManager creates a Manager over the default kubeconfig loading chain.
// A non-empty kubeconfigPath pins loading to that file.
func NewManager(kubeconfigPath string) *Manager {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}

	m := &Manager{loadingRules: rules}
	m.newClientset = m.defaultClientset
	return m
}

// UseContext verifies that contextName exists in the kubeconfig and persists
// it as the current context, so that subsequent helm invocations inherit it.
func (m *Manager) UseContext(ctx context.Context, contextName string) error {
	logger := logr.FromContextOrDiscard(ctx).WithName("kube")
	logger.Info("setting kubeconfig context", "context", contextName)

	config, err := m.loadingRules.Load()
	if err != nil {
		return fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	if _, ok := config.Contexts[contextName]; !ok {
		return fmt.Errorf("%w: %q", ErrContextNotFound, contextName)
	}

	config.CurrentContext = contextName
	if err := clientcmd.ModifyConfig(m.loadingRules, *config, true); err != nil {
		return fmt.Errorf("failed to persist current context %q: %w", contextName, err)
	}

	logger.Info("kubeconfig context set", "context", contextName)
	return nil
}

// VerifyNamespace checks that the target namespace exists and is active
// before any release is touched.
func (m *Manager) VerifyNamespace(ctx context.Context, namespace string) error {
	logger := logr.FromContextOrDiscard(ctx).WithName("kube")

	clientset, err := m.newClientset()
	if err != nil {
		return fmt.Errorf("failed to build cluster client: %w", err)
	}

	ns, err := clientset.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return fmt.Errorf("%w: %q", ErrNamespaceNotFound, namespace)
	}
	if err != nil {
		return fmt.Errorf("failed to get namespace %q: %w", namespace, err)
	}

	if ns.Status.Phase == corev1.NamespaceTerminating {
		return fmt.Errorf("namespace %q is terminating", namespace)
	}

	logger.V(1).Info("namespace verified", "namespace", namespace, "phase", ns.Status.Phase)
	return nil
}

func (m *Manager) defaultClientset() (kubernetes.Interface, error) {
	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		m.loadingRules,
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(restConfig)
}
